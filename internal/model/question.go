package model

// SelectAnswerRequest is the payload for recording an answer on an attempt.
type SelectAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	OptionID   string `json:"option_id" binding:"required"`
}

// MoveCursorRequest is the payload for navigating between questions.
// Exactly one of the three forms is used per request.
type MoveCursorRequest struct {
	Action string `json:"action" binding:"required,oneof=next previous jump"`
	Index  *int   `json:"index" binding:"omitempty,min=0"`
}
