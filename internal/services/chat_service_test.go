// internal/services/chat_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/talkmate/talkmate/internal/errors"
	"github.com/talkmate/talkmate/internal/models"
	"github.com/talkmate/talkmate/internal/storage"
)

// recordingPublisher collects published events for assertions.
type recordingPublisher struct {
	events []ChatEvent
}

func (p *recordingPublisher) Publish(event ChatEvent) {
	p.events = append(p.events, event)
}

// newTestChatService builds a chat engine over a temp store. With a nil
// stub the AI adapter has no provider and only the simulated path runs.
func newTestChatService(t *testing.T, stub *stubProvider) (*ChatService, *AccountService) {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	var ai *AIService
	if stub != nil {
		ai = newStubAIService(t, stub)
	} else {
		ai = &AIService{logger: testLogger()}
	}

	accounts, err := NewAccountService(store, ai)
	require.NoError(t, err)

	catalog, err := NewCatalogService()
	require.NoError(t, err)

	chat := NewChatService(NewClassifierService(), catalog, NewFeedbackService(), ai, accounts, 11)
	chat.SetTypingDelay(func() time.Duration { return 0 })

	return chat, accounts
}

// enableAIMode marks the account as AI-capable without touching the
// provider wiring, which the stub already covers.
func enableAIMode(accounts *AccountService) {
	accounts.mu.Lock()
	accounts.apiKey = "test-key"
	accounts.aiMode = true
	accounts.mu.Unlock()
}

func TestCreateSessionOpensWithGreeting(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, models.PersonalityDefault, session.Personality.ID)
	assert.Equal(t, StateIdle, session.State)
	require.Len(t, session.Messages, 1)

	opening := session.Messages[0]
	assert.Equal(t, models.SenderPartner, opening.Sender)
	assert.NotEmpty(t, opening.Text)
	assert.Empty(t, opening.Feedback, "the opening line carries no feedback")
}

func TestCreateSessionUnknownPersonality(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	_, err := chat.CreateSession(context.Background(), "aggressiva")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestSendMessageAlwaysReplies(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	session, err := chat.CreateSession(context.Background(), models.PersonalityTimida)
	require.NoError(t, err)

	inputs := []string{"Ciao!", "xyzzy!!!", "Cosa ti piace fare?", "ok"}
	for _, input := range inputs {
		result, err := chat.SendMessage(context.Background(), session.ID, input)
		require.NoError(t, err, "input %q", input)

		assert.False(t, result.UsedAI)
		assert.Equal(t, models.SenderPartner, result.Reply.Sender)
		assert.NotEmpty(t, result.Reply.Text, "input %q got no reply", input)
		assert.NotEmpty(t, result.Reply.Feedback, "input %q got no feedback", input)
	}

	messages, err := chat.Messages(session.ID)
	require.NoError(t, err)
	// Opening line plus one user/partner pair per input
	assert.Len(t, messages, 1+2*len(inputs))
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	_, err = chat.SendMessage(context.Background(), session.ID, "   ")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestSendMessageUnknownSession(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	_, err := chat.SendMessage(context.Background(), "missing", "ciao")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestSendMessageRejectsOverlappingSend(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	chat.mu.RLock()
	sess := chat.sessions[session.ID]
	chat.mu.RUnlock()

	sess.mu.Lock()
	sess.state = StateAwaitingResponse
	sess.mu.Unlock()

	_, err = chat.SendMessage(context.Background(), session.ID, "ciao")
	assert.True(t, apperrors.IsConflictError(err))
}

func TestSendMessageAIPathConsumesCredit(t *testing.T) {
	stub := &stubProvider{reply: "Tutto bene! [Coach: Buon inizio]"}
	chat, accounts := newTestChatService(t, stub)
	enableAIMode(accounts)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	creditsBefore := accounts.Status().Credits

	result, err := chat.SendMessage(context.Background(), session.ID, "Come va oggi?")
	require.NoError(t, err)

	assert.True(t, result.UsedAI)
	assert.Equal(t, "Tutto bene!", result.Reply.Text)
	assert.Equal(t, "Buon inizio", result.Reply.Feedback)
	assert.Equal(t, creditsBefore-1, accounts.Status().Credits)
}

func TestSendMessagePremiumConsumesNothing(t *testing.T) {
	stub := &stubProvider{reply: "Certo! [Coach: Bene]"}
	chat, accounts := newTestChatService(t, stub)
	enableAIMode(accounts)
	require.NoError(t, accounts.SetPremium(true))

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	creditsBefore := accounts.Status().Credits

	result, err := chat.SendMessage(context.Background(), session.ID, "Ti piace viaggiare?")
	require.NoError(t, err)

	assert.True(t, result.UsedAI)
	assert.Equal(t, creditsBefore, accounts.Status().Credits)
}

func TestSendMessageAIFailureFallsBack(t *testing.T) {
	stub := &stubProvider{err: errors.New("backend down")}
	chat, accounts := newTestChatService(t, stub)
	enableAIMode(accounts)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	creditsBefore := accounts.Status().Credits
	callsBefore := len(stub.seen)

	result, err := chat.SendMessage(context.Background(), session.ID, "Come va?")
	require.NoError(t, err, "an AI failure must not fail the send")

	assert.False(t, result.UsedAI)
	assert.NotEmpty(t, result.Reply.Text)
	assert.NotEmpty(t, result.Notice, "the degradation must be surfaced")

	// No credit for a failed completion
	assert.Equal(t, creditsBefore, accounts.Status().Credits)

	// AI stays disabled for the rest of the session
	result, err = chat.SendMessage(context.Background(), session.ID, "E adesso?")
	require.NoError(t, err)
	assert.False(t, result.UsedAI)
	assert.Equal(t, callsBefore+1, len(stub.seen), "no retry against a failed backend")
}

func TestSendMessageNoCreditsFallsBack(t *testing.T) {
	stub := &stubProvider{reply: "Ciao! [Coach: Bene]"}
	chat, accounts := newTestChatService(t, stub)
	enableAIMode(accounts)

	accounts.mu.Lock()
	accounts.account.Credits = 0
	accounts.mu.Unlock()

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	callsBefore := len(stub.seen)

	result, err := chat.SendMessage(context.Background(), session.ID, "Come stai?")
	require.NoError(t, err)

	assert.False(t, result.UsedAI)
	assert.Equal(t, noticeNoCredits, result.Notice)
	assert.Equal(t, callsBefore, len(stub.seen), "no backend call without credits")
}

func TestSendMessageMissingKeyNotice(t *testing.T) {
	stub := &stubProvider{reply: "Ciao!"}
	chat, accounts := newTestChatService(t, stub)

	// Enable AI while premium, then cancel premium: AI mode stays on but
	// without a saved credential the account is no longer eligible.
	require.NoError(t, accounts.SetPremium(true))
	require.NoError(t, accounts.SetAIMode(true))
	require.NoError(t, accounts.SetPremium(false))

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	result, err := chat.SendMessage(context.Background(), session.ID, "Ciao, come stai?")
	require.NoError(t, err)

	assert.False(t, result.UsedAI)
	assert.Equal(t, noticeNoAPIKey, result.Notice, "a missing credential must not be reported as exhausted credits")
}

func TestCreditExhaustionRoutesToSimulated(t *testing.T) {
	stub := &stubProvider{reply: "Va bene! [Coach: Continua così]"}
	chat, accounts := newTestChatService(t, stub)
	enableAIMode(accounts)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	// The opening line is free
	require.Equal(t, models.DefaultFreeCredits, accounts.Status().Credits)

	for i := 1; i <= models.DefaultFreeCredits; i++ {
		result, err := chat.SendMessage(context.Background(), session.ID, "Ti piace la musica?")
		require.NoError(t, err)
		assert.True(t, result.UsedAI, "send %d should use the AI path", i)
		assert.Equal(t, models.DefaultFreeCredits-i, accounts.Status().Credits)
	}

	callsBefore := len(stub.seen)

	result, err := chat.SendMessage(context.Background(), session.ID, "E adesso?")
	require.NoError(t, err)

	assert.False(t, result.UsedAI, "an exhausted balance routes to the simulated path")
	assert.Equal(t, noticeNoCredits, result.Notice)
	assert.Equal(t, callsBefore, len(stub.seen), "no backend call without credits")
	assert.Equal(t, 0, accounts.Status().Credits)
}

func TestResetChatRejectedDuringFallbackReply(t *testing.T) {
	stub := &stubProvider{err: errors.New("backend down")}
	chat, accounts := newTestChatService(t, stub)
	enableAIMode(accounts)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	// Gate the typing delay so the send is parked in the simulated retry
	// that follows the AI failure.
	entered := make(chan struct{})
	release := make(chan struct{})
	chat.SetTypingDelay(func() time.Duration {
		close(entered)
		<-release
		return 0
	})

	done := make(chan error, 1)
	go func() {
		_, err := chat.SendMessage(context.Background(), session.ID, "Come va?")
		done <- err
	}()

	<-entered
	_, err = chat.ResetChat(context.Background(), session.ID, "")
	assert.True(t, apperrors.IsConflictError(err), "reset must be rejected while the fallback reply is pending")

	close(release)
	require.NoError(t, <-done)

	// The conversation survived intact: opening, user message, fallback reply
	messages, err := chat.Messages(session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, models.SenderUser, messages[1].Sender)
	assert.Equal(t, "Come va?", messages[1].Text)
	assert.Equal(t, models.SenderPartner, messages[2].Sender)
}

func TestAIOpeningLineKeepsRawContext(t *testing.T) {
	stub := &stubProvider{reply: "Ciao, anche tu qui? [Coach: Nota di apertura]"}
	chat, accounts := newTestChatService(t, stub)
	enableAIMode(accounts)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, session.Messages, 1)
	assert.Equal(t, "Ciao, anche tu qui?", session.Messages[0].Text)
	assert.Empty(t, session.Messages[0].Feedback)

	chat.mu.RLock()
	sess := chat.sessions[session.ID]
	chat.mu.RUnlock()

	// The context records the unparsed completion, as on the send path
	entries := sess.context.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.ContextRolePartner, entries[1].Role)
	assert.Equal(t, "Ciao, anche tu qui? [Coach: Nota di apertura]", entries[1].Content)
}

func TestResetChatClearsHistory(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	_, err = chat.SendMessage(context.Background(), session.ID, "Ciao, come va?")
	require.NoError(t, err)

	view, err := chat.ResetChat(context.Background(), session.ID, models.PersonalitySarcastica)
	require.NoError(t, err)

	assert.Equal(t, models.PersonalitySarcastica, view.Personality.ID)
	require.Len(t, view.Messages, 1, "reset keeps only the new opening line")
	assert.Equal(t, models.SenderPartner, view.Messages[0].Sender)
}

func TestSetPersonalityUnknownIsNoOp(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	session, err := chat.CreateSession(context.Background(), models.PersonalityDiretta)
	require.NoError(t, err)

	_, err = chat.SendMessage(context.Background(), session.ID, "Ciao!")
	require.NoError(t, err)

	view, err := chat.SetPersonality(context.Background(), session.ID, "romantica")
	require.NoError(t, err)

	assert.Equal(t, models.PersonalityDiretta, view.Personality.ID)
	assert.Len(t, view.Messages, 3, "an unknown personality must not reset the chat")
}

func TestCloseSession(t *testing.T) {
	chat, _ := newTestChatService(t, nil)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, chat.CloseSession(session.ID))

	_, err = chat.GetSession(session.ID)
	assert.True(t, apperrors.IsNotFoundError(err))

	assert.True(t, apperrors.IsNotFoundError(chat.CloseSession(session.ID)))
}

func TestEventsArePublished(t *testing.T) {
	chat, _ := newTestChatService(t, nil)
	publisher := &recordingPublisher{}
	chat.SetPublisher(publisher)

	session, err := chat.CreateSession(context.Background(), "")
	require.NoError(t, err)

	_, err = chat.SendMessage(context.Background(), session.ID, "Ciao, tutto bene?")
	require.NoError(t, err)

	var messageEvents, resetEvents int
	for _, event := range publisher.events {
		assert.Equal(t, session.ID, event.SessionID)
		switch event.Type {
		case EventMessage:
			messageEvents++
		case EventReset:
			resetEvents++
		}
	}

	// Opening line, user message and partner reply
	assert.Equal(t, 3, messageEvents)
	assert.Equal(t, 1, resetEvents)
}
