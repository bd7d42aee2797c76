// internal/services/catalog_service.go
package services

import (
	"fmt"
	"math/rand"

	apperrors "github.com/talkmate/talkmate/internal/errors"
	"github.com/talkmate/talkmate/internal/models"
)

// responseCatalog maps personality id -> input category -> candidate
// replies. Every pair in the fixed personality and category sets must have
// a non-empty list; NewCatalogService verifies this exhaustively.
var responseCatalog = map[string]map[InputCategory][]string{
	models.PersonalityTimida: {
		CategoryGreeting: {
			"Ciao... come stai?",
			"Ehm... ciao!",
			"Ciao... scusa, sono un po' timida all'inizio.",
		},
		CategoryQuestion: {
			"Non so... forse...",
			"Mmm, dovrei pensarci un po'...",
			"È una bella domanda... non so cosa rispondere.",
		},
		CategoryCompliment: {
			"Oh... grazie, non so cosa dire...",
			"Mi fai arrossire...",
			"Davvero lo pensi? Grazie...",
		},
		CategoryInterests: {
			"Mi piace leggere, ma non ne parlo spesso...",
			"Ascolto musica... soprattutto quando sono sola.",
			"Mi piace questo, ma non ne parlo spesso.",
		},
		CategoryPersonal: {
			"Non ti conosco ancora bene...",
			"Preferirei non parlarne subito, se va bene...",
			"Magari te lo racconto più avanti...",
		},
		CategoryGeneric: {
			"Non so... forse...",
			"Scusa, sono un po' timida.",
			"Ah... capisco.",
		},
	},
	models.PersonalityDiretta: {
		CategoryGreeting: {
			"Ciao! Cosa fai nella vita?",
			"Finalmente! Dimmi qualcosa di interessante su di te.",
			"Ciao. Andiamo subito al punto: cosa cerchi qui?",
		},
		CategoryQuestion: {
			"Non sono convinta, spiegami meglio.",
			"Risposta diretta: sì. E tu?",
			"Dipende. Perché me lo chiedi?",
		},
		CategoryCompliment: {
			"Mi piaci, sei interessante.",
			"Grazie. Almeno sai fare i complimenti.",
			"Apprezzo la sincerità. Continua così.",
		},
		CategoryInterests: {
			"Palestra e viaggi. Tu invece?",
			"Mi piace chi ha passioni vere, non quelle inventate per colpire.",
			"Vado dritta: concerti, cucina e poco divano.",
		},
		CategoryPersonal: {
			"Vivo sola e lavoro tanto. Prossima domanda.",
			"Sono single da un anno. Ti basta come risposta?",
			"Preferisco essere chiara: quella cosa non mi piace.",
		},
		CategoryGeneric: {
			"Andiamo al punto: ti interesso?",
			"Ok. E quindi?",
			"Dimmi qualcosa che non dici a tutte.",
		},
	},
	models.PersonalitySarcastica: {
		CategoryGreeting: {
			"Oh wow, che originalità...",
			"\"Ciao\". Fermati, troppa fantasia tutta insieme.",
			"Davvero? Mai sentito prima... *rotola gli occhi*",
		},
		CategoryQuestion: {
			"Ok genio, e poi?",
			"Domanda profondissima. Mi serve un attimo per riprendermi.",
			"Wow, quiz a sorpresa. Adoro essere interrogata.",
		},
		CategoryCompliment: {
			"Complimenti per l'osservazione geniale...",
			"Lo so, sono fantastica. Dimmi qualcosa che non so.",
			"Che dolce. L'hai letto su internet?",
		},
		CategoryInterests: {
			"Hobby? Collezionare conversazioni noiose, a quanto pare.",
			"Mi piace il cinema. Soprattutto quando il film è meglio della compagnia.",
			"Viaggio molto. Di solito lontano da domande come questa.",
		},
		CategoryPersonal: {
			"Ti hanno mai detto che sei incredibilmente prevedibile?",
			"Curioso, eh? Il mio dossier costa caro.",
			"Vita privata: privata. Colpo di scena, vero?",
		},
		CategoryGeneric: {
			"Davvero? Mai sentito prima... *rotola gli occhi*",
			"Affascinante. Quasi quanto guardare l'asfalto.",
			"Ok genio, e poi?",
		},
	},
	models.PersonalityDefault: {
		CategoryGreeting: {
			"Ciao! Come va?",
			"Ciao! Che piacere, com'è andata la giornata?",
			"Ehi, ciao! Tutto bene?",
		},
		CategoryQuestion: {
			"Non ci avevo mai pensato così.",
			"Bella domanda! Secondo me sì, ma dimmi la tua.",
			"Interessante, raccontami di più.",
		},
		CategoryCompliment: {
			"Grazie, sei gentile!",
			"Che carino, grazie! Anche tu sembri una bella persona.",
			"Mi piace come la pensi.",
		},
		CategoryInterests: {
			"Adoro viaggiare e scoprire posti nuovi, tu?",
			"Mi piace molto la musica, ultimamente ascolto di tutto.",
			"Nel tempo libero leggo e cucino. E tu cosa fai?",
		},
		CategoryPersonal: {
			"Vivo in città e lavoro parecchio, ma mi ritaglio i miei spazi.",
			"Famiglia unita, anche se ci vediamo poco. La tua?",
			"Diciamo che la mia vita è un bel mix di routine e sorprese.",
		},
		CategoryGeneric: {
			"Interessante, raccontami di più.",
			"Mi piace come la pensi.",
			"Hai dei piani per il weekend?",
		},
	},
}

// CatalogService samples canned replies by personality and input category.
type CatalogService struct {
	responses map[string]map[InputCategory][]string
}

// NewCatalogService builds the catalog and verifies its completeness:
// every personality in the fixed set must have a non-empty candidate list
// for every category. A hole is a data-authoring bug and aborts startup.
func NewCatalogService() (*CatalogService, error) {
	for _, p := range models.Personalities {
		byCategory, ok := responseCatalog[p.ID]
		if !ok {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("response catalog missing personality %q", p.ID), nil)
		}
		for _, category := range AllCategories {
			if len(byCategory[category]) == 0 {
				return nil, apperrors.NewConfigurationError(
					fmt.Sprintf("response catalog missing candidates for %s/%s", p.ID, category), nil)
			}
		}
	}

	return &CatalogService{responses: responseCatalog}, nil
}

// Sample returns a uniformly random candidate reply for the given
// personality and category. A miss cannot happen with a validated catalog
// and is treated as a configuration error, never a silent empty string.
func (s *CatalogService) Sample(personalityID string, category InputCategory) (string, error) {
	candidates := s.responses[personalityID][category]
	if len(candidates) == 0 {
		return "", apperrors.NewConfigurationError(
			fmt.Sprintf("no candidates for %s/%s", personalityID, category), nil)
	}
	return candidates[rand.Intn(len(candidates))], nil
}

// Candidates returns the candidate list for a personality/category pair.
func (s *CatalogService) Candidates(personalityID string, category InputCategory) []string {
	return s.responses[personalityID][category]
}
