// internal/services/tips_service.go
package services

import (
	apperrors "github.com/talkmate/talkmate/internal/errors"
	"github.com/talkmate/talkmate/internal/models"
)

// tipCategories holds the curated conversation advice, grouped by theme.
var tipCategories = []models.TipCategory{
	{
		ID:   "approccio",
		Name: "Come approcciarsi",
		Tips: []models.Tip{
			{
				Title:   "Domande aperte",
				Content: "Inizia con domande aperte che richiedono più di un \"sì\" o \"no\" come risposta. Esempio: \"Cosa ne pensi di questo evento?\" invece di \"Ti piace questo evento?\"",
			},
			{
				Title:   "Osservazione contestuale",
				Content: "Fai un'osservazione sull'ambiente circostante o su qualcosa di rilevante per la situazione. Questo appare più naturale di approcci generici.",
			},
			{
				Title:   "Complimenti specifici",
				Content: "Se fai un complimento, assicurati che sia specifico e sincero. Ad esempio, \"Mi piace molto come hai espresso quel concetto prima\" è meglio di \"Sei molto carina\".",
			},
			{
				Title:   "Interesse genuino",
				Content: "Mostra un interesse genuino. Le persone percepiscono quando qualcuno è sinceramente interessato o sta solo seguendo un copione.",
			},
		},
	},
	{
		ID:   "conversazione",
		Name: "Mantenere la conversazione",
		Tips: []models.Tip{
			{
				Title:   "Tecnica del follow-up",
				Content: "Quando qualcuno condivide qualcosa, fai una domanda di approfondimento su ciò che ha detto, anziché cambiare subito argomento.",
			},
			{
				Title:   "Ascolto attivo",
				Content: "Mostra che stai ascoltando attraverso cenni, brevi conferme vocali e riformulando occasionalmente ciò che la persona ha detto.",
			},
			{
				Title:   "Condivisione personale",
				Content: "Condividi esperienze personali rilevanti, ma senza monopolizzare la conversazione o cercare di \"superare\" l'altra persona.",
			},
			{
				Title:   "Pausa strategica",
				Content: "Non temere i brevi silenzi. A volte una pausa di 2-3 secondi può incoraggiare l'altra persona ad aggiungere qualcosa di più profondo.",
			},
			{
				Title:   "Cambiamenti di argomento fluidi",
				Content: "Per cambiare argomento in modo naturale, cerca collegamenti tra ciò di cui state parlando e il nuovo tema.",
			},
		},
	},
	{
		ID:   "errori",
		Name: "Errori da evitare",
		Tips: []models.Tip{
			{
				Title:   "Interruzioni frequenti",
				Content: "Evita di interrompere costantemente. Lascia che l'altra persona completi i suoi pensieri prima di rispondere.",
			},
			{
				Title:   "Comportamento distratto",
				Content: "Non controllare il telefono o guardarti intorno mentre qualcuno ti parla. L'attenzione completa è un segno di rispetto.",
			},
			{
				Title:   "Conversazione centrata su di sé",
				Content: "Evita di riportare ogni argomento a te stesso o di rispondere a ogni storia con una tua storia \"migliore\".",
			},
			{
				Title:   "Domande invasive",
				Content: "Non fare domande troppo personali nelle prime fasi di conoscenza. Rispetta i confini dell'altra persona.",
			},
			{
				Title:   "Giudizi affrettati",
				Content: "Evita di esprimere giudizi o opinioni troppo forti su argomenti che potrebbero essere sensibili (politica, religione, ecc.) all'inizio di una conoscenza.",
			},
		},
	},
	{
		ID:   "segnali",
		Name: "Segnali non verbali",
		Tips: []models.Tip{
			{
				Title:   "Contatto visivo",
				Content: "Mantieni un contatto visivo adeguato (circa 60-70% del tempo), ma senza fissare in modo eccessivo che potrebbe mettere a disagio.",
			},
			{
				Title:   "Postura",
				Content: "Una postura aperta (non incrociare braccia o gambe) comunica apertura e interesse. Inclinati leggermente verso la persona quando parla.",
			},
			{
				Title:   "Espressione facciale",
				Content: "Un leggero sorriso e un'espressione rilassata creano un'atmosfera positiva. Le tue espressioni dovrebbero rispecchiare il tono della conversazione.",
			},
			{
				Title:   "Distanza interpersonale",
				Content: "Rispetta lo spazio personale. La distanza confortevole dipende dalla cultura e dal contesto, ma generalmente 60-90 cm è appropriata per conversazioni informali.",
			},
			{
				Title:   "Gesti delle mani",
				Content: "Gesti moderati delle mani possono enfatizzare ciò che stai dicendo e renderti più espressivo, ma evita movimenti eccessivi o nervosi.",
			},
		},
	},
}

// TipsService serves the curated advice catalog.
type TipsService struct{}

func NewTipsService() *TipsService {
	return &TipsService{}
}

// Categories returns all tip categories in display order.
func (s *TipsService) Categories() []models.TipCategory {
	out := make([]models.TipCategory, len(tipCategories))
	copy(out, tipCategories)
	return out
}

// Category returns a single category by id.
func (s *TipsService) Category(id string) (models.TipCategory, error) {
	for _, c := range tipCategories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.TipCategory{}, apperrors.NewNotFoundError("tip category not found: "+id, nil)
}
