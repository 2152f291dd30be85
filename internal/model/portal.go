package model

// Types exchanged with the upstream portal API. Shapes follow the upstream
// wire contract, so JSON tags use its camelCase field names.

// User is a portal student account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Admin is a portal administrator account.
type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResponse is returned by student login/register.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// AdminAuthResponse is returned by admin login.
type AdminAuthResponse struct {
	Token string `json:"token"`
	Admin *Admin `json:"admin,omitempty"`
}

// LoginRequest carries student credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterRequest carries new-student registration data.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}

// AdminLoginRequest carries administrator credentials.
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// ExamSummary is an exam as listed outside an attempt (no questions).
type ExamSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// ExamResult is a student's aggregate result for one exam.
type ExamResult struct {
	Score            float64 `json:"score"`
	TotalQuestions   int     `json:"totalQuestions"`
	CorrectAnswers   int     `json:"correctAnswers"`
	IncorrectAnswers int     `json:"incorrectAnswers"`
}

// ResultSummary is one row of a student's result history.
type ResultSummary struct {
	ExamID         string  `json:"examId"`
	ExamTitle      string  `json:"examTitle"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	CompletedAt    string  `json:"completedAt"`
}
