// internal/services/quiz_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizQuestionsHideAnswers(t *testing.T) {
	quiz := NewQuizService()

	questions := quiz.Questions()
	require.Len(t, questions, len(quizQuestions))

	for i, q := range questions {
		assert.Equal(t, quizQuestions[i].ID, q.ID)
		assert.NotEmpty(t, q.Question)
		assert.Len(t, q.Options, 4)
	}
}

func TestQuizGradePerfectScore(t *testing.T) {
	quiz := NewQuizService()

	answers := make([]int, len(quizQuestions))
	for i, q := range quizQuestions {
		answers[i] = q.CorrectAnswer
	}

	result, err := quiz.Grade(answers)
	require.NoError(t, err)

	assert.Equal(t, len(quizQuestions), result.Score)
	assert.InDelta(t, 100.0, result.Percentage, 0.0001)
	assert.Equal(t, quizFeedbackExcellent, result.Feedback)

	for _, review := range result.Answers {
		assert.True(t, review.IsCorrect)
		assert.NotEmpty(t, review.Explanation)
	}
}

func TestQuizGradeFeedbackBands(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{100, quizFeedbackExcellent},
		{80, quizFeedbackExcellent},
		{60, quizFeedbackGood},
		{40, quizFeedbackFair},
		{20, quizFeedbackPoor},
		{0, quizFeedbackPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, quizFeedback(tt.percentage), "percentage %v", tt.percentage)
	}
}

func TestQuizGradePartialScore(t *testing.T) {
	quiz := NewQuizService()

	// First three correct, last two wrong
	answers := make([]int, len(quizQuestions))
	for i, q := range quizQuestions {
		if i < 3 {
			answers[i] = q.CorrectAnswer
		} else {
			answers[i] = (q.CorrectAnswer + 1) % len(q.Options)
		}
	}

	result, err := quiz.Grade(answers)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Score)
	assert.Equal(t, quizFeedbackGood, result.Feedback)
	assert.False(t, result.Answers[4].IsCorrect)
	assert.Equal(t, quizQuestions[4].CorrectAnswer, result.Answers[4].Correct)
}

func TestQuizGradeRejectsBadSubmissions(t *testing.T) {
	quiz := NewQuizService()

	_, err := quiz.Grade([]int{0, 1})
	assert.Error(t, err, "incomplete submission")

	answers := make([]int, len(quizQuestions))
	answers[0] = 7
	_, err = quiz.Grade(answers)
	assert.Error(t, err, "out-of-range answer")
}
