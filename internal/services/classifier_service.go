// internal/services/classifier_service.go
package services

import "strings"

// InputCategory is the closed set of categories a user utterance can be
// classified into.
type InputCategory string

const (
	CategoryGreeting   InputCategory = "greeting"
	CategoryQuestion   InputCategory = "question"
	CategoryCompliment InputCategory = "compliment"
	CategoryInterests  InputCategory = "interests"
	CategoryPersonal   InputCategory = "personal"
	CategoryGeneric    InputCategory = "generic"
)

// AllCategories lists every input category. Used by the catalog
// completeness check.
var AllCategories = []InputCategory{
	CategoryGreeting,
	CategoryQuestion,
	CategoryCompliment,
	CategoryInterests,
	CategoryPersonal,
	CategoryGeneric,
}

// Ordered rule token sets. Rule evaluation order matters: a greeting that
// is also phrased as a question ("come va?") stays a greeting.
var (
	greetingPrefixes = []string{
		"ciao", "salve", "hey", "ehi", "buongiorno", "buonasera",
		"come va", "come stai",
	}

	questionPrefixes = []string{
		"cosa", "che ", "come", "perché", "perche", "quando", "dove",
		"chi ", "quale", "quanto", "puoi", "pensi", "sei ", "hai ",
		"ti piace", "preferisci",
	}

	complimentTokens = []string{
		"bella", "bello", "carina", "carino", "dolce", "intelligente",
		"simpatica", "simpatico", "affascinante", "mi piaci", "stupenda",
		"meravigliosa",
	}

	interestTokens = []string{
		"hobby", "film", "musica", "viaggi", "viaggiare", "leggere",
		"libri", "libro", "sport", "cucina", "cucinare", "serie tv",
		"passioni", "tempo libero",
	}

	personalTokens = []string{
		"vivi", "abiti", "lavori", "lavoro", "studi", "fidanzato",
		"fidanzata", "single", "famiglia", "età", "anni hai", "sorelle",
		"fratelli",
	}
)

// ClassifierService maps raw user utterances to input categories using
// ordered pattern rules. Pure and total: every string, including the empty
// one, maps to exactly one category.
type ClassifierService struct{}

// NewClassifierService creates the input classifier.
func NewClassifierService() *ClassifierService {
	return &ClassifierService{}
}

// Classify returns the input category for utterance. First matching rule
// wins; generic is the catch-all.
func (s *ClassifierService) Classify(utterance string) InputCategory {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return CategoryGeneric
	}

	for _, prefix := range greetingPrefixes {
		if strings.HasPrefix(text, prefix) {
			return CategoryGreeting
		}
	}

	if strings.HasSuffix(text, "?") {
		for _, prefix := range questionPrefixes {
			if strings.HasPrefix(text, prefix) {
				return CategoryQuestion
			}
		}
	}

	for _, token := range complimentTokens {
		if strings.Contains(text, token) {
			return CategoryCompliment
		}
	}

	for _, token := range interestTokens {
		if strings.Contains(text, token) {
			return CategoryInterests
		}
	}

	for _, token := range personalTokens {
		if strings.Contains(text, token) {
			return CategoryPersonal
		}
	}

	return CategoryGeneric
}
