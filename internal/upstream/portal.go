package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/unisphere/exam-gateway/internal/model"
)

// Student-facing portal calls: auth, exam content, submission, results.

// Login authenticates a student and returns the upstream bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var out model.AuthResponse
	body := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

// Register creates a student account and returns its bearer token.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

// Logout invalidates the student token upstream.
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser resolves the student behind a token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("current user: %w: missing user", ErrMalformedPayload)
	}
	return out.User, nil
}

// AdminLogin authenticates an administrator.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*model.AdminAuthResponse, error) {
	var out model.AdminAuthResponse
	body := model.AdminLoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/admin/login", "", body, &out); err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	return &out, nil
}

// ListExams returns the exams currently available to the student.
func (c *Client) ListExams(ctx context.Context, token string) ([]model.ExamSummary, error) {
	var out []model.ExamSummary
	if err := c.do(ctx, http.MethodGet, "/exams", token, nil, &out); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return out, nil
}

// FetchExam retrieves the full exam snapshot an attempt is opened against.
// A response without a questions array is a malformed payload, not an exam
// with zero questions.
func (c *Client) FetchExam(ctx context.Context, token, examID string) (*model.Exam, error) {
	var out model.Exam
	if err := c.do(ctx, http.MethodGet, "/exams/"+examID, token, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch exam %s: %w", examID, err)
	}
	if out.Questions == nil {
		return nil, fmt.Errorf("fetch exam %s: %w: missing questions", examID, ErrMalformedPayload)
	}
	return &out, nil
}

// SubmitExam durably records the answers for an exam. Scoring and
// idempotency are upstream concerns.
func (c *Client) SubmitExam(ctx context.Context, token, examID string, answers []model.Answer) error {
	body := struct {
		Answers []model.Answer `json:"answers"`
	}{Answers: answers}

	if err := c.do(ctx, http.MethodPost, "/exams/"+examID+"/submit", token, body, nil); err != nil {
		return fmt.Errorf("submit exam %s: %w", examID, err)
	}
	return nil
}

// ExamResults returns the student's aggregate result for one exam.
func (c *Client) ExamResults(ctx context.Context, token, examID string) (*model.ExamResult, error) {
	var out model.ExamResult
	if err := c.do(ctx, http.MethodGet, "/exams/"+examID+"/results", token, nil, &out); err != nil {
		return nil, fmt.Errorf("exam results %s: %w", examID, err)
	}
	return &out, nil
}

// AllResults returns the student's full result history.
func (c *Client) AllResults(ctx context.Context, token string) ([]model.ResultSummary, error) {
	var out []model.ResultSummary
	if err := c.do(ctx, http.MethodGet, "/exams/results", token, nil, &out); err != nil {
		return nil, fmt.Errorf("all results: %w", err)
	}
	return out, nil
}
