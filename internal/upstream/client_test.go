package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unisphere/exam-gateway/internal/config"
	"github.com/unisphere/exam-gateway/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.Config{
		UpstreamBaseURL: srv.URL,
		UpstreamTimeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestFetchExamUnwrapsDataEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/exams/exam-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"exam-1","title":"Midterm","duration":30,"questions":[
			{"id":"Q1","text":"First?","options":[{"id":"A","text":"a"}]}
		]}}`))
	})

	exam, err := c.FetchExam(context.Background(), "tok", "exam-1")
	require.NoError(t, err)
	assert.Equal(t, "exam-1", exam.ID)
	assert.Equal(t, 30, exam.DurationMinutes)
	require.Len(t, exam.Questions, 1)
	assert.Equal(t, "Q1", exam.Questions[0].ID)
}

func TestFetchExamAcceptsBarePayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"exam-1","title":"Midterm","duration":30,"questions":[]}`))
	})

	exam, err := c.FetchExam(context.Background(), "tok", "exam-1")
	require.NoError(t, err)
	assert.NotNil(t, exam.Questions)
	assert.Empty(t, exam.Questions)
}

func TestFetchExamMissingQuestionsIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"exam-1","title":"Midterm","duration":30}`))
	})

	_, err := c.FetchExam(context.Background(), "tok", "exam-1")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status    int
		want      error
		transient bool
	}{
		{http.StatusUnauthorized, ErrUnauthorized, false},
		{http.StatusForbidden, ErrUnauthorized, false},
		{http.StatusNotFound, ErrNotFound, false},
		{http.StatusUnprocessableEntity, ErrRejected, false},
		{http.StatusInternalServerError, ErrUnavailable, true},
		{http.StatusBadGateway, ErrUnavailable, true},
	}

	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"error":{"code":"X","message":"boom"}}`))
		})

		_, err := c.FetchExam(context.Background(), "tok", "exam-1")
		require.Error(t, err, "status %d", tc.status)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		assert.Equal(t, tc.transient, IsTransient(err), "status %d", tc.status)
		assert.Contains(t, err.Error(), "boom")
	}
}

func TestConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens here anymore

	c := NewClient(&config.Config{
		UpstreamBaseURL: srv.URL,
		UpstreamTimeout: time.Second,
	}, zerolog.Nop())

	_, err := c.FetchExam(context.Background(), "tok", "exam-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsTransient(err))
}

func TestSubmitExamSendsAnswersPayload(t *testing.T) {
	var got struct {
		Answers []model.Answer `json:"answers"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/exams/exam-1/submit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"message":"ok"}}`))
	})

	answers := []model.Answer{
		{QuestionID: "Q1", SelectedOptionID: "A"},
		{QuestionID: "Q2", SelectedOptionID: "D"},
	}
	require.NoError(t, c.SubmitExam(context.Background(), "tok", "exam-1", answers))
	assert.Equal(t, answers, got.Answers)
}

func TestSubmitExamRejectionIsNotTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"already submitted"}`))
	})

	err := c.SubmitExam(context.Background(), "tok", "exam-1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.False(t, IsTransient(err))
	assert.Contains(t, err.Error(), "already submitted")
}

func TestLoginReturnsTokenAndOmitsAuthHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "s@example.com", req.Email)

		w.Write([]byte(`{"data":{"token":"upstream-token","user":{"id":"u1","email":"s@example.com","username":"sam"}}}`))
	})

	auth, err := c.Login(context.Background(), "s@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "upstream-token", auth.Token)
	require.NotNil(t, auth.User)
	assert.Equal(t, "sam", auth.User.Username)
}

func TestCurrentUserRequiresUserField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me", r.URL.Path)
		w.Write([]byte(`{"data":{}}`))
	})

	_, err := c.CurrentUser(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestListExams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exams", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"e1","title":"Midterm","duration":30},{"id":"e2","title":"Final","duration":90}]}`))
	})

	exams, err := c.ListExams(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, exams, 2)
	assert.Equal(t, "Final", exams[1].Title)
	assert.Equal(t, 90, exams[1].Duration)
}

func TestErrorMessageFallsBackToLooseShapes(t *testing.T) {
	assert.Equal(t, "from envelope", errorMessage([]byte(`{"error":{"code":"X","message":"from envelope"}}`)))
	assert.Equal(t, "bare message", errorMessage([]byte(`{"message":"bare message"}`)))
	assert.Equal(t, "bare error", errorMessage([]byte(`{"error":"bare error"}`)))
	assert.Equal(t, "", errorMessage([]byte(`not json`)))
}
