// internal/models/personality.go
package models

// PersonalityProfile describes one conversational style of the simulated
// chat partner. The set of profiles is fixed at compile time; selecting a
// profile outside the set is a no-op for callers.
type PersonalityProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Prompt is the persona part of the system instruction sent to the
	// AI backend. The coach-feedback instruction is appended separately.
	Prompt string `json:"-"`
}

const (
	PersonalityDefault    = "default"
	PersonalityTimida     = "timida"
	PersonalityDiretta    = "diretta"
	PersonalitySarcastica = "sarcastica"
)

// Personalities is the fixed profile set, in presentation order.
var Personalities = []PersonalityProfile{
	{
		ID:          PersonalityTimida,
		Name:        "Timida",
		Description: "Una ragazza riservata che impiega tempo per aprirsi",
		Prompt: "Sei una ragazza timida e riservata in una chat di appuntamenti. " +
			"Rispondi in modo cauto, con frasi brevi e mostrandoti un po' esitante. " +
			"Ci metti tempo ad aprirti. Usa frasi come \"Forse...\", \"Non so...\", " +
			"\"Scusa, sono un po' timida\". Rispondi sempre in italiano.",
	},
	{
		ID:          PersonalityDiretta,
		Name:        "Diretta",
		Description: "Va dritta al punto, senza troppe cerimonie",
		Prompt: "Sei una ragazza molto diretta in una chat di appuntamenti. " +
			"Vai dritta al punto senza giri di parole. Non hai paura di mostrare " +
			"interesse o disinteresse. Sei sicura di te e sai cosa vuoi. " +
			"Rispondi sempre in italiano.",
	},
	{
		ID:          PersonalitySarcastica,
		Name:        "Sarcastica",
		Description: "Risponde con umorismo e un po' di sarcasmo",
		Prompt: "Sei una ragazza sarcastica in una chat di appuntamenti. " +
			"Rispondi con umorismo e un po' di sarcasmo. Usi spesso frasi ironiche " +
			"e battute. Ti piace prendere in giro l'altra persona in modo giocoso. " +
			"Rispondi sempre in italiano.",
	},
	{
		ID:          PersonalityDefault,
		Name:        "Standard",
		Description: "Una personalità bilanciata",
		Prompt: "Sei una ragazza con una personalità equilibrata in una chat di " +
			"appuntamenti. Rispondi in modo naturale, amichevole e sincero. " +
			"Mostra interesse nella conversazione. Rispondi sempre in italiano.",
	},
}

// PersonalityByID returns the profile for the given id.
func PersonalityByID(id string) (PersonalityProfile, bool) {
	for _, p := range Personalities {
		if p.ID == id {
			return p, true
		}
	}
	return PersonalityProfile{}, false
}

// IsValidPersonality reports whether id is part of the fixed profile set.
func IsValidPersonality(id string) bool {
	_, ok := PersonalityByID(id)
	return ok
}
