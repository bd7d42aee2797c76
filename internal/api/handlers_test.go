// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkmate/talkmate/internal/di"
	"github.com/talkmate/talkmate/internal/models"
	"github.com/talkmate/talkmate/internal/services"
	"github.com/talkmate/talkmate/internal/storage"
)

// setupTestRouter wires a fresh service stack into the DI container and
// builds the router against it. AI mode stays off, so every conversation
// turn takes the simulated path.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOG_DIR", t.TempDir())

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	ai := services.NewAIService()
	accounts, err := services.NewAccountService(store, ai)
	require.NoError(t, err)

	catalog, err := services.NewCatalogService()
	require.NoError(t, err)

	chat := services.NewChatService(
		services.NewClassifierService(),
		catalog,
		services.NewFeedbackService(),
		ai,
		accounts,
		11,
	)
	chat.SetTypingDelay(func() time.Duration { return 0 })

	hub := NewSessionHub()
	t.Cleanup(hub.Shutdown)
	chat.SetPublisher(hub)

	container := di.GetContainer()
	container.Register("store", store)
	container.Register("ai", ai)
	container.Register("account", accounts)
	container.Register("chat", chat)
	container.Register("quiz", services.NewQuizService())
	container.Register("tips", services.NewTipsService())
	container.Register("hub", hub)

	router, err := SetupRouter()
	require.NoError(t, err)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "body: %s", w.Body.String())
	return w, envelope
}

func createTestSession(t *testing.T, router *gin.Engine, personality string) string {
	t.Helper()

	var body interface{}
	if personality != "" {
		body = CreateSessionRequest{Personality: personality}
	}
	w, envelope := doRequest(t, router, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, envelope.Success)

	session := envelope.Data.(map[string]interface{})
	id, ok := session["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func TestCreateSessionReturnsOpeningLine(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.RequestID)

	session := envelope.Data.(map[string]interface{})
	messages := session["messages"].([]interface{})
	require.Len(t, messages, 1)

	opening := messages[0].(map[string]interface{})
	assert.Equal(t, "partner", opening["sender"])
	assert.NotEmpty(t, opening["text"])
}

func TestSessionConversationFlow(t *testing.T) {
	router := setupTestRouter(t)
	id := createTestSession(t, router, models.Personalities[0].ID)

	w, envelope := doRequest(t, router, http.MethodPost, "/api/sessions/"+id+"/messages",
		SendMessageRequest{Text: "Ciao, come va?"})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, envelope.Success)

	result := envelope.Data.(map[string]interface{})
	reply := result["reply"].(map[string]interface{})
	assert.Equal(t, "partner", reply["sender"])
	assert.NotEmpty(t, reply["text"])
	assert.NotEmpty(t, reply["feedback"])
	assert.Equal(t, false, result["used_ai"])

	// Opening line + user message + reply
	w, envelope = doRequest(t, router, http.MethodGet, "/api/sessions/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	messages := envelope.Data.([]interface{})
	assert.Len(t, messages, 3)
}

func TestSendMessageValidation(t *testing.T) {
	router := setupTestRouter(t)
	id := createTestSession(t, router, "")

	w, envelope := doRequest(t, router, http.MethodPost, "/api/sessions/"+id+"/messages",
		SendMessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, ErrorBadRequest, envelope.Error.Code)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodGet, "/api/sessions/no-such-session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, ErrorNotFound, envelope.Error.Code)
}

func TestCreateSessionRejectsUnknownPersonality(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodPost, "/api/sessions",
		CreateSessionRequest{Personality: "nessuno"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)
}

func TestDeleteSession(t *testing.T) {
	router := setupTestRouter(t)
	id := createTestSession(t, router, "")

	w, _ := doRequest(t, router, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, router, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetChatSwitchesPersonality(t *testing.T) {
	router := setupTestRouter(t)
	id := createTestSession(t, router, models.Personalities[0].ID)

	_, _ = doRequest(t, router, http.MethodPost, "/api/sessions/"+id+"/messages",
		SendMessageRequest{Text: "Ciao!"})

	target := models.Personalities[1].ID
	w, envelope := doRequest(t, router, http.MethodPost, "/api/sessions/"+id+"/reset",
		SetPersonalityRequest{Personality: target})
	require.Equal(t, http.StatusOK, w.Code)

	session := envelope.Data.(map[string]interface{})
	personality := session["personality"].(map[string]interface{})
	assert.Equal(t, target, personality["id"])
	assert.Len(t, session["messages"].([]interface{}), 1)
}

func TestGetPersonalities(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodGet, "/api/personalities", nil)
	require.Equal(t, http.StatusOK, w.Code)

	personalities := envelope.Data.([]interface{})
	assert.Len(t, personalities, len(models.Personalities))
}

func TestAccountEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodGet, "/api/account", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := envelope.Data.(map[string]interface{})
	assert.Equal(t, float64(models.DefaultFreeCredits), status["credits"])
	assert.Equal(t, false, status["is_premium"])
	assert.Equal(t, false, status["ai_eligible"])

	w, envelope = doRequest(t, router, http.MethodPost, "/api/account/credits",
		AddCreditsRequest{Amount: 5})
	require.Equal(t, http.StatusOK, w.Code)
	status = envelope.Data.(map[string]interface{})
	assert.Equal(t, float64(models.DefaultFreeCredits+5), status["credits"])

	w, envelope = doRequest(t, router, http.MethodPost, "/api/account/credits",
		AddCreditsRequest{Amount: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)

	w, envelope = doRequest(t, router, http.MethodPost, "/api/account/premium",
		SetPremiumRequest{Premium: true})
	require.Equal(t, http.StatusOK, w.Code)
	status = envelope.Data.(map[string]interface{})
	assert.Equal(t, true, status["is_premium"])
	assert.Equal(t, true, status["ai_eligible"])
}

func TestSetAIModeWithoutEligibilityFails(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodPut, "/api/account/ai-mode",
		SetAIModeRequest{Enabled: true})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, ErrorInsufficientCredits, envelope.Error.Code)
}

func TestQuizEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodGet, "/api/quiz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	questions := envelope.Data.([]interface{})
	require.NotEmpty(t, questions)

	first := questions[0].(map[string]interface{})
	assert.NotContains(t, first, "correct_answer")
	assert.NotContains(t, first, "explanation")

	// All-zero answers: a complete submission, graded without error
	answers := make([]int, len(questions))
	w, envelope = doRequest(t, router, http.MethodPost, "/api/quiz/submit",
		QuizSubmissionRequest{Answers: answers})
	require.Equal(t, http.StatusOK, w.Code)
	result := envelope.Data.(map[string]interface{})
	assert.Equal(t, float64(len(questions)), result["total"])
	assert.NotEmpty(t, result["feedback"])

	w, envelope = doRequest(t, router, http.MethodPost, "/api/quiz/submit",
		QuizSubmissionRequest{Answers: []int{0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, ErrorQuizSubmissionInvalid, envelope.Error.Code)
}

func TestTipsEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	w, envelope := doRequest(t, router, http.MethodGet, "/api/tips", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, envelope.Data.([]interface{}), 4)

	w, envelope = doRequest(t, router, http.MethodGet, "/api/tips/conversazione", nil)
	require.Equal(t, http.StatusOK, w.Code)
	category := envelope.Data.(map[string]interface{})
	assert.Equal(t, "conversazione", category["id"])

	w, envelope = doRequest(t, router, http.MethodGet, "/api/tips/sconosciuto", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, ErrorTipCategoryNotFound, envelope.Error.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/personalities", nil)
	req.Header.Set("X-Request-ID", "req-test-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-test-123", w.Header().Get("X-Request-ID"))

	var envelope APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "req-test-123", envelope.RequestID)
}

func TestWebSocketStatusEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ws/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Contains(t, status, "total_sessions")
	assert.Contains(t, status, "total_subscribers")
}
