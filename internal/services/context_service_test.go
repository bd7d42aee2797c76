// internal/services/context_service_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkmate/talkmate/internal/models"
)

func TestContextStartsWithSystemInstruction(t *testing.T) {
	personality, ok := models.PersonalityByID(models.PersonalityDefault)
	require.True(t, ok)

	ctx := NewConversationContext(personality, 11)

	entries := ctx.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ContextRoleSystem, entries[0].Role)
	assert.Contains(t, entries[0].Content, personality.Prompt)
	assert.Contains(t, entries[0].Content, "[Coach:")
}

func TestContextSlidingWindow(t *testing.T) {
	personality, ok := models.PersonalityByID(models.PersonalityDiretta)
	require.True(t, ok)

	const maxEntries = 5
	ctx := NewConversationContext(personality, maxEntries)

	for i := 0; i < 10; i++ {
		ctx.AppendUserTurn(fmt.Sprintf("user %d", i))
		ctx.AppendPartnerTurn(fmt.Sprintf("partner %d", i))
	}

	entries := ctx.Entries()
	require.Len(t, entries, maxEntries)

	// The system entry is never evicted
	assert.Equal(t, models.ContextRoleSystem, entries[0].Role)

	// The rest is the most recent turns in order
	assert.Equal(t, "user 8", entries[1].Content)
	assert.Equal(t, "partner 8", entries[2].Content)
	assert.Equal(t, "user 9", entries[3].Content)
	assert.Equal(t, "partner 9", entries[4].Content)
}

func TestContextExactlyAtBound(t *testing.T) {
	personality, _ := models.PersonalityByID(models.PersonalityDefault)

	ctx := NewConversationContext(personality, 3)
	ctx.AppendUserTurn("first")
	ctx.AppendPartnerTurn("second")

	// Exactly at the bound: nothing evicted yet
	entries := ctx.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[1].Content)

	ctx.AppendUserTurn("third")
	entries = ctx.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, models.ContextRoleSystem, entries[0].Role)
	assert.Equal(t, "second", entries[1].Content)
	assert.Equal(t, "third", entries[2].Content)
}

func TestContextResetSwitchesPersonality(t *testing.T) {
	defaultP, _ := models.PersonalityByID(models.PersonalityDefault)
	sarcastic, _ := models.PersonalityByID(models.PersonalitySarcastica)

	ctx := NewConversationContext(defaultP, 11)
	ctx.AppendUserTurn("ciao")
	ctx.AppendPartnerTurn("ehilà")

	ctx.Reset(sarcastic)

	entries := ctx.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Content, sarcastic.Prompt)
}

func TestContextEntriesReturnsCopy(t *testing.T) {
	personality, _ := models.PersonalityByID(models.PersonalityDefault)

	ctx := NewConversationContext(personality, 11)
	entries := ctx.Entries()
	entries[0].Content = "mutated"

	assert.NotEqual(t, "mutated", ctx.Entries()[0].Content)
}

func TestContextWindowKeepsRecency(t *testing.T) {
	personality, _ := models.PersonalityByID(models.PersonalityTimida)

	ctx := NewConversationContext(personality, 4)
	for i := 0; i < 7; i++ {
		ctx.AppendUserTurn(fmt.Sprintf("turn %d", i))
	}

	entries := ctx.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "turn 4", entries[1].Content)
	assert.Equal(t, "turn 5", entries[2].Content)
	assert.Equal(t, "turn 6", entries[3].Content)
}
