package model

// Option is a single answer choice. The gateway never learns which option
// is correct — correctness lives upstream.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one exam question with its ordered options.
type Question struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	ImageURLs []string `json:"imageUrls,omitempty"`
	Options   []Option `json:"options"`
}

// Exam is the read-only snapshot an attempt is opened against. It is fetched
// once per attempt and immutable for the attempt's lifetime.
type Exam struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration"`
	Questions       []Question `json:"questions"`
}

// Answer pairs a question with the option the student selected.
type Answer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
}

// HasOption reports whether optionID belongs to this question's option set.
func (q *Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// QuestionByID returns the question with the given id, or nil.
func (e *Exam) QuestionByID(questionID string) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == questionID {
			return &e.Questions[i]
		}
	}
	return nil
}
