package model

// Admin-side exam authoring types. Options here carry the correct flag —
// they flow admin ↔ upstream only and are never exposed to attempt routes.

// AuthoredOption is an answer option as authored, including correctness.
type AuthoredOption struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text" binding:"required"`
	Correct bool   `json:"correct"`
}

// AuthoredQuestion is a question as authored by an admin.
type AuthoredQuestion struct {
	ID        string           `json:"id,omitempty"`
	Text      string           `json:"text" binding:"required,min=1,max=2000"`
	ImageURLs []string         `json:"imageUrls,omitempty"`
	Options   []AuthoredOption `json:"options" binding:"required,min=2,dive"`
}

// CreateExamRequest is the payload for authoring a new exam.
type CreateExamRequest struct {
	Title       string             `json:"title" binding:"required,min=3,max=255"`
	Description string             `json:"description" binding:"max=2000"`
	Duration    int                `json:"duration" binding:"required,min=1,max=480"`
	StartTime   string             `json:"startTime" binding:"omitempty"`
	EndTime     string             `json:"endTime" binding:"omitempty"`
	Questions   []AuthoredQuestion `json:"questions" binding:"required,min=1,dive"`
}

// AdminExam is a fully detailed exam as seen by administrators.
type AdminExam struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Duration    int                `json:"duration"`
	StartTime   string             `json:"startTime,omitempty"`
	EndTime     string             `json:"endTime,omitempty"`
	CreatedAt   string             `json:"createdAt,omitempty"`
	Questions   []AuthoredQuestion `json:"questions,omitempty"`
}

// AdminExamResult is one student's outcome row in the admin results view.
type AdminExamResult struct {
	SessionID      string        `json:"sessionId"`
	StartTime      string        `json:"startTime"`
	EndTime        *string       `json:"endTime"`
	Completed      bool          `json:"completed"`
	UserID         string        `json:"userId"`
	UserEmail      string        `json:"userEmail"`
	Username       string        `json:"username"`
	Score          *float64      `json:"score"`
	TotalQuestions *int          `json:"totalQuestions"`
	CorrectAnswers int           `json:"correctAnswers,omitempty"`
	Answers        []GradedAnswer `json:"answers,omitempty"`
}

// GradedAnswer is one answered question with its grading detail.
type GradedAnswer struct {
	QuestionID         string `json:"questionId"`
	QuestionText       string `json:"questionText,omitempty"`
	SelectedOptionID   string `json:"selectedOptionId"`
	SelectedOptionText string `json:"selectedOptionText"`
	IsCorrect          bool   `json:"isCorrect"`
	CorrectOptionID    string `json:"correctOptionId,omitempty"`
	CorrectOptionText  string `json:"correctOptionText,omitempty"`
}

// BulkUserInput is one row of a bulk student import.
type BulkUserInput struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}

// BulkCreateUsersRequest is the payload for bulk student import.
type BulkCreateUsersRequest struct {
	Users []BulkUserInput `json:"users" binding:"required,min=1,dive"`
}

// BulkCreateUsersResult reports which rows were created vs skipped.
type BulkCreateUsersResult struct {
	Created []User        `json:"created"`
	Skipped []SkippedUser `json:"skipped"`
}

// SkippedUser explains why one bulk-import row was not created.
type SkippedUser struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// UploadedImage is the upstream's record of a stored question image.
type UploadedImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}
