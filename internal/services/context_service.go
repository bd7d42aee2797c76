// internal/services/context_service.go
package services

import (
	"sync"

	"github.com/talkmate/talkmate/internal/models"
)

// coachInstruction is appended to every personality prompt so that the AI
// backend embeds a coach annotation in its replies.
const coachInstruction = " Alla fine di ogni messaggio, dopo aver risposto normalmente, " +
	"aggiungi sempre un feedback costruttivo preceduto da [Coach:]. " +
	"Il feedback deve valutare l'approccio dell'utente nella conversazione, " +
	"offrendo consigli su cosa ha funzionato o come migliorare. " +
	"Ad esempio: [Coach: Buona domanda aperta, mostra interesse!] o " +
	"[Coach: Attenzione, questa domanda potrebbe sembrare invadente. Prova ad essere più graduale.]"

// SystemInstruction builds the system entry content for a personality.
func SystemInstruction(personality models.PersonalityProfile) string {
	return personality.Prompt + coachInstruction
}

// ConversationContext maintains the bounded ordered history of turns sent
// to the AI backend. Entry 0 is always the system instruction derived from
// the active personality; truncation drops the oldest non-system entries,
// keeping the instruction anchor plus the most recent maxEntries-1 turns.
type ConversationContext struct {
	mu         sync.Mutex
	maxEntries int
	entries    []models.ContextEntry
}

// NewConversationContext creates a context seeded with the personality's
// system instruction. maxEntries is the total bound including the system
// entry and must be at least 2.
func NewConversationContext(personality models.PersonalityProfile, maxEntries int) *ConversationContext {
	c := &ConversationContext{maxEntries: maxEntries}
	c.Reset(personality)
	return c
}

// Reset rebuilds the context to contain only the system instruction for
// the given personality.
func (c *ConversationContext) Reset(personality models.PersonalityProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = []models.ContextEntry{
		{Role: models.ContextRoleSystem, Content: SystemInstruction(personality)},
	}
}

// AppendUserTurn pushes a user turn, truncating if the bound is exceeded.
func (c *ConversationContext) AppendUserTurn(text string) {
	c.append(models.ContextEntry{Role: models.ContextRoleUser, Content: text})
}

// AppendPartnerTurn pushes a partner turn, truncating if the bound is
// exceeded.
func (c *ConversationContext) AppendPartnerTurn(text string) {
	c.append(models.ContextEntry{Role: models.ContextRolePartner, Content: text})
}

func (c *ConversationContext) append(entry models.ContextEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry)

	if len(c.entries) > c.maxEntries {
		// Sliding window: keep the system entry plus the most recent turns
		kept := make([]models.ContextEntry, 0, c.maxEntries)
		kept = append(kept, c.entries[0])
		kept = append(kept, c.entries[len(c.entries)-(c.maxEntries-1):]...)
		c.entries = kept
	}
}

// Entries returns a copy of the current context.
func (c *ConversationContext) Entries() []models.ContextEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ContextEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the current number of entries including the system entry.
func (c *ConversationContext) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
