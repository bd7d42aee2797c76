// internal/services/feedback_service.go
package services

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FeedbackValence is the tone of a coach feedback phrase.
type FeedbackValence string

const (
	ValencePositive FeedbackValence = "positive"
	ValenceNegative FeedbackValence = "negative"
	ValenceNeutral  FeedbackValence = "neutral"
)

// Coach phrase pools by valence.
var feedbackPhrases = map[FeedbackValence][]string{
	ValencePositive: {
		"Buona risposta! Hai mostrato interesse senza esagerare.",
		"Ottimo approccio, personale ma non invadente.",
		"Ben fatto! La tua risposta è stata naturale.",
		"Bella domanda aperta, invita l'altra persona a raccontarsi.",
	},
	ValenceNegative: {
		"Attenzione, questa risposta potrebbe sembrare troppo generica.",
		"Prova ad essere più specifico per mostrare che stai ascoltando.",
		"Questa risposta potrebbe sembrare un po' forzata.",
		"Risposta molto breve: rischi di chiudere la conversazione.",
	},
	ValenceNeutral: {
		"Risposta nella media. Prova ad aggiungere una domanda.",
		"Va bene, ma puoi renderla più personale.",
		"Neutra ma corretta. Un dettaglio in più la renderebbe migliore.",
	},
}

// Italian pronoun sets used by the self-centered / other-directed rules.
var (
	firstPersonWords  = []string{"io", "mi", "me", "mio", "mia", "miei", "mie"}
	secondPersonWords = []string{"tu", "ti", "te", "tuo", "tua", "tuoi", "tue"}
)

// FeedbackService assigns a valence to the latest user utterance with a
// stateless heuristic and samples a coach phrase from the matching pool.
// It deliberately ignores prior turns.
type FeedbackService struct{}

// NewFeedbackService creates the feedback generator.
func NewFeedbackService() *FeedbackService {
	return &FeedbackService{}
}

// Evaluate returns the feedback valence for utterance. Rules are applied
// in order; the first match wins.
func (s *FeedbackService) Evaluate(utterance string) FeedbackValence {
	length := utf8.RuneCountInString(utterance)

	// Too terse to carry a conversation
	if length < 10 {
		return ValenceNegative
	}

	// A detailed question shows engagement
	if strings.Contains(utterance, "?") && length > 20 {
		return ValencePositive
	}

	first := containsAnyWord(utterance, firstPersonWords)
	second := containsAnyWord(utterance, secondPersonWords)

	// Talking only about yourself
	if first && !second {
		return ValenceNegative
	}

	// Showing interest in the partner
	if second {
		return ValencePositive
	}

	return ValenceNeutral
}

// Generate returns a coach feedback phrase for utterance, sampled
// uniformly from the pool matching its valence.
func (s *FeedbackService) Generate(utterance string) string {
	pool := feedbackPhrases[s.Evaluate(utterance)]
	return pool[rand.Intn(len(pool))]
}

// containsAnyWord reports whether text contains any of words as a whole
// word, case-insensitively.
func containsAnyWord(text string, words []string) bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	for _, field := range fields {
		// Handle elisions like "t'ho" by splitting on the apostrophe
		for _, part := range strings.Split(field, "'") {
			for _, word := range words {
				if part == word {
					return true
				}
			}
		}
	}
	return false
}
