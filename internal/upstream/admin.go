package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/unisphere/exam-gateway/internal/model"
)

// Admin CRUD passthrough. Authorization is enforced upstream — the gateway
// only forwards the admin bearer token.

// ListAdminExams returns all exams including drafts and closed ones.
func (c *Client) ListAdminExams(ctx context.Context, token string) ([]model.AdminExam, error) {
	var out []model.AdminExam
	if err := c.do(ctx, http.MethodGet, "/admin/exams", token, nil, &out); err != nil {
		return nil, fmt.Errorf("list admin exams: %w", err)
	}
	return out, nil
}

// CreateExam authors a new exam with its questions.
func (c *Client) CreateExam(ctx context.Context, token string, req model.CreateExamRequest) (*model.AdminExam, error) {
	var out struct {
		Exam *model.AdminExam `json:"exam"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/exams", token, req, &out); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	if out.Exam == nil {
		return nil, fmt.Errorf("create exam: %w: missing exam", ErrMalformedPayload)
	}
	return out.Exam, nil
}

// GetExamDetails returns one exam with its authored questions.
func (c *Client) GetExamDetails(ctx context.Context, token, examID string) (*model.AdminExam, error) {
	var out model.AdminExam
	if err := c.do(ctx, http.MethodGet, "/admin/exams/"+examID, token, nil, &out); err != nil {
		return nil, fmt.Errorf("get exam details %s: %w", examID, err)
	}
	return &out, nil
}

// DeleteExam removes an exam upstream.
func (c *Client) DeleteExam(ctx context.Context, token, examID string) error {
	if err := c.do(ctx, http.MethodDelete, "/admin/exams/"+examID, token, nil, nil); err != nil {
		return fmt.Errorf("delete exam %s: %w", examID, err)
	}
	return nil
}

// AdminExamResults returns every student's outcome for one exam.
func (c *Client) AdminExamResults(ctx context.Context, token, examID string) ([]model.AdminExamResult, error) {
	var out []model.AdminExamResult
	if err := c.do(ctx, http.MethodGet, "/admin/exams/"+examID+"/results", token, nil, &out); err != nil {
		return nil, fmt.Errorf("admin exam results %s: %w", examID, err)
	}
	return out, nil
}

// StudentExamResult returns one student's detailed, graded result.
func (c *Client) StudentExamResult(ctx context.Context, token, examID, userID string) (*model.AdminExamResult, error) {
	var out model.AdminExamResult
	if err := c.do(ctx, http.MethodGet, "/admin/exams/"+examID+"/results/"+userID, token, nil, &out); err != nil {
		return nil, fmt.Errorf("student exam result %s/%s: %w", examID, userID, err)
	}
	return &out, nil
}

// ListUsers returns all student accounts.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", token, nil, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// BulkCreateUsers imports student accounts in one call.
func (c *Client) BulkCreateUsers(ctx context.Context, token string, req model.BulkCreateUsersRequest) (*model.BulkCreateUsersResult, error) {
	var out model.BulkCreateUsersResult
	if err := c.do(ctx, http.MethodPost, "/admin/users/bulk", token, req, &out); err != nil {
		return nil, fmt.Errorf("bulk create users: %w", err)
	}
	return &out, nil
}

// UploadImage streams a question image to upstream storage and returns its URL.
// The gateway never writes the file to disk.
func (c *Client) UploadImage(ctx context.Context, token, filename, contentType string, file io.Reader) (*model.UploadedImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("upload image: create part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("upload image: copy: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload image: finalize: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/upload-image", &buf)
	if err != nil {
		return nil, fmt.Errorf("upload image: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	var out model.UploadedImage
	if err := c.send(req, &out); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if out.URL == "" || out.Filename == "" {
		return nil, fmt.Errorf("upload image: %w: missing url or filename", ErrMalformedPayload)
	}
	return &out, nil
}
