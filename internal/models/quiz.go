// internal/models/quiz.go
package models

// QuizQuestion is a single multiple-choice question of the conversation quiz.
type QuizQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// PublicQuestion is the question as exposed to clients, without the answer.
type PublicQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizAnswerReview reports the outcome of one answered question.
type QuizAnswerReview struct {
	QuestionID  int    `json:"question_id"`
	Given       int    `json:"given"`
	Correct     int    `json:"correct"`
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation,omitempty"`
}

// QuizResult is the graded outcome of a full quiz submission.
type QuizResult struct {
	Score      int                `json:"score"`
	Total      int                `json:"total"`
	Percentage float64            `json:"percentage"`
	Feedback   string             `json:"feedback"`
	Answers    []QuizAnswerReview `json:"answers"`
}
