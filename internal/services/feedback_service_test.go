// internal/services/feedback_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackEvaluate(t *testing.T) {
	feedback := NewFeedbackService()

	tests := []struct {
		utterance string
		want      FeedbackValence
	}{
		// Too short
		{"ok", ValenceNegative},
		{"ciao", ValenceNegative},
		// Engaged question
		{"Cosa ti piace fare nel tuo tempo libero?", ValencePositive},
		// Self-centered, no second person
		{"io penso solo al mio lavoro", ValenceNegative},
		// Other-directed
		{"raccontami qualcosa di te", ValencePositive},
		// No pronouns either way
		{"oggi splende il sole in città", ValenceNeutral},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, feedback.Evaluate(tt.utterance), "utterance %q", tt.utterance)
	}
}

// Rune length, not byte length: accented text must not be double counted.
func TestFeedbackEvaluateCountsRunes(t *testing.T) {
	feedback := NewFeedbackService()

	// 9 runes but more than 10 bytes
	assert.Equal(t, ValenceNegative, feedback.Evaluate("èèèèèèèèè"))
}

// A short question is still short.
func TestFeedbackShortQuestionStaysNegative(t *testing.T) {
	feedback := NewFeedbackService()

	assert.Equal(t, ValenceNegative, feedback.Evaluate("come va?"))
}

// Pronouns match whole words only: "tiro" contains "ti" but is not a
// second-person pronoun.
func TestFeedbackWholeWordMatching(t *testing.T) {
	feedback := NewFeedbackService()

	assert.Equal(t, ValenceNeutral, feedback.Evaluate("il tiro era perfetto ieri"))
}

func TestFeedbackGenerateSamplesMatchingPool(t *testing.T) {
	feedback := NewFeedbackService()

	utterance := "Cosa ti piace fare nel tuo tempo libero?"
	require.Equal(t, ValencePositive, feedback.Evaluate(utterance))

	pool := feedbackPhrases[ValencePositive]
	for i := 0; i < 20; i++ {
		assert.Contains(t, pool, feedback.Generate(utterance))
	}
}
