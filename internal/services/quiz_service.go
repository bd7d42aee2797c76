// internal/services/quiz_service.go
package services

import (
	apperrors "github.com/talkmate/talkmate/internal/errors"
	"github.com/talkmate/talkmate/internal/models"
)

// quizQuestions is the fixed conversation-skills question bank.
var quizQuestions = []models.QuizQuestion{
	{
		ID:       1,
		Question: "Qual è il modo migliore per iniziare una conversazione con qualcuno che non conosci?",
		Options: []string{
			"Fare un complimento sul suo aspetto fisico",
			"Fare una domanda aperta su qualcosa di osservabile nell'ambiente",
			"Parlare subito dei tuoi interessi personali",
			"Raccontare una barzelletta divertente",
		},
		CorrectAnswer: 1,
		Explanation:   "Le domande aperte su qualcosa nell'ambiente circostante (come un libro, un evento, ecc.) sono un modo naturale e non invasivo per iniziare una conversazione.",
	},
	{
		ID:       2,
		Question: "Durante una conversazione, quale di queste azioni dovresti evitare?",
		Options: []string{
			"Mantenere un contatto visivo moderato",
			"Fare domande di approfondimento",
			"Controllare frequentemente il telefono",
			"Condividere brevi esperienze personali correlate",
		},
		CorrectAnswer: 2,
		Explanation:   "Controllare frequentemente il telefono mostra disinteresse e rompe il flusso della conversazione.",
	},
	{
		ID:       3,
		Question: "Se l'altra persona sembra poco interessata alla conversazione, cosa dovresti fare?",
		Options: []string{
			"Continuare a parlare di più argomenti finché non trovi quello che le interessa",
			"Parlare più forte per attirare la sua attenzione",
			"Chiedere direttamente perché non è interessata",
			"Rispettare i segnali e concludere la conversazione con gentilezza",
		},
		CorrectAnswer: 3,
		Explanation:   "È importante riconoscere e rispettare quando l'altra persona non è interessata, concludendo la conversazione in modo gentile.",
	},
	{
		ID:       4,
		Question: "Quale di questi è un buon modo per fare un complimento?",
		Options: []string{
			"Wow, sei davvero bellissima, molto più delle altre ragazze qui!",
			"Mi piace come hai espresso quel concetto, è interessante come ragioni",
			"Non sei come le altre ragazze, sei diversa",
			"Devi avere molti pretendenti con quel fisico",
		},
		CorrectAnswer: 1,
		Explanation:   "I complimenti migliori sono quelli specifici e non basati solo sull'aspetto fisico o su confronti con altre persone.",
	},
	{
		ID:       5,
		Question: "Quando parli dei tuoi interessi in una conversazione, quale approccio è più efficace?",
		Options: []string{
			"Parlare in dettaglio di ogni tuo interesse per impressionare l'altra persona",
			"Parlare solo degli interessi che pensi possano piacere anche all'altra persona",
			"Condividere brevemente i tuoi interessi e poi chiedere dei suoi",
			"Evitare di parlare dei tuoi interessi per non sembrare egocentrico",
		},
		CorrectAnswer: 2,
		Explanation:   "Condividere brevemente i tuoi interessi e poi chiedere all'altra persona dei suoi crea un equilibrio e mostra interesse reciproco.",
	},
}

// Score-band feedback messages.
const (
	quizFeedbackExcellent = "Eccellente! Hai dimostrato ottime capacità di comunicazione. Continua così!"
	quizFeedbackGood      = "Buon risultato! Hai una buona comprensione delle dinamiche di conversazione, ma c'è ancora margine di miglioramento."
	quizFeedbackFair      = "Sei sulla buona strada, ma dovresti rivedere alcuni concetti fondamentali sulle conversazioni efficaci."
	quizFeedbackPoor      = "C'è molto spazio per migliorare. Ti consigliamo di leggere la sezione Tips & Tricks e provare ancora la simulazione chat."
)

// QuizService serves the question bank and grades submissions.
type QuizService struct{}

func NewQuizService() *QuizService {
	return &QuizService{}
}

// Questions returns the question bank without answers or explanations.
func (s *QuizService) Questions() []models.PublicQuestion {
	out := make([]models.PublicQuestion, 0, len(quizQuestions))
	for _, q := range quizQuestions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		out = append(out, models.PublicQuestion{
			ID:       q.ID,
			Question: q.Question,
			Options:  options,
		})
	}
	return out
}

// Grade scores a full submission. Answers are option indexes in question
// order; the submission must cover every question.
func (s *QuizService) Grade(answers []int) (*models.QuizResult, error) {
	if len(answers) != len(quizQuestions) {
		return nil, apperrors.NewValidationError("submission must answer every question", nil)
	}

	result := &models.QuizResult{
		Total:   len(quizQuestions),
		Answers: make([]models.QuizAnswerReview, 0, len(quizQuestions)),
	}

	for i, q := range quizQuestions {
		answer := answers[i]
		if answer < 0 || answer >= len(q.Options) {
			return nil, apperrors.NewValidationError("answer out of range for question", nil)
		}
		correct := answer == q.CorrectAnswer
		if correct {
			result.Score++
		}
		result.Answers = append(result.Answers, models.QuizAnswerReview{
			QuestionID:  q.ID,
			Given:       answer,
			Correct:     q.CorrectAnswer,
			IsCorrect:   correct,
			Explanation: q.Explanation,
		})
	}

	result.Percentage = float64(result.Score) / float64(result.Total) * 100
	result.Feedback = quizFeedback(result.Percentage)
	return result, nil
}

func quizFeedback(percentage float64) string {
	switch {
	case percentage >= 80:
		return quizFeedbackExcellent
	case percentage >= 60:
		return quizFeedbackGood
	case percentage >= 40:
		return quizFeedbackFair
	default:
		return quizFeedbackPoor
	}
}
