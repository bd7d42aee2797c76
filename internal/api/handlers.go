// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talkmate/talkmate/internal/services"
)

// Handler serves the API endpoints.
type Handler struct {
	ChatService    *services.ChatService
	AccountService *services.AccountService
	QuizService    *services.QuizService
	TipsService    *services.TipsService
	Hub            *SessionHub
	Response       *ResponseHelper
}

// NewHandler creates the API handler.
func NewHandler(
	chatService *services.ChatService,
	accountService *services.AccountService,
	quizService *services.QuizService,
	tipsService *services.TipsService,
	hub *SessionHub,
) *Handler {
	return &Handler{
		ChatService:    chatService,
		AccountService: accountService,
		QuizService:    quizService,
		TipsService:    tipsService,
		Hub:            hub,
		Response:       NewResponseHelper(),
	}
}

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the standard error payload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// CreateSessionRequest starts a new conversation.
type CreateSessionRequest struct {
	Personality string `json:"personality"`
}

// SendMessageRequest carries one user utterance.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SetPersonalityRequest switches the conversation partner profile.
type SetPersonalityRequest struct {
	Personality string `json:"personality"`
}

// AddCreditsRequest tops up the AI credit balance.
type AddCreditsRequest struct {
	Amount int `json:"amount"`
}

// SetPremiumRequest toggles the premium flag.
type SetPremiumRequest struct {
	Premium bool `json:"premium"`
}

// SetAPIKeyRequest stores the AI backend credential.
type SetAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SetAIModeRequest toggles between AI and simulated replies.
type SetAIModeRequest struct {
	Enabled bool `json:"enabled"`
}

// QuizSubmissionRequest carries the answers of a full quiz run, as option
// indexes in question order.
type QuizSubmissionRequest struct {
	Answers []int `json:"answers"`
}

// ========================================
// Session endpoints
// ========================================

// CreateSession starts a conversation and returns it with the opening line.
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Response.BadRequest(c, "invalid request body", err.Error())
			return
		}
	}

	session, err := h.ChatService.CreateSession(c.Request.Context(), req.Personality)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Created(c, session, "session created")
}

// GetSession returns the session with its message history.
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.ChatService.GetSession(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, session)
}

// DeleteSession discards the session.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.ChatService.CloseSession(c.Param("id")); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, nil, "session closed")
}

// GetMessages returns the message history of the session.
func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.ChatService.Messages(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, messages)
}

// SendMessage posts one user utterance and returns the partner reply.
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.ChatService.SendMessage(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// ResetChat rebuilds the conversation, optionally with a new personality.
func (h *Handler) ResetChat(c *gin.Context) {
	var req SetPersonalityRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Response.BadRequest(c, "invalid request body", err.Error())
			return
		}
	}

	session, err := h.ChatService.ResetChat(c.Request.Context(), c.Param("id"), req.Personality)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, session, "conversation reset")
}

// SetPersonality switches the partner profile and resets the conversation.
func (h *Handler) SetPersonality(c *gin.Context) {
	var req SetPersonalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	session, err := h.ChatService.SetPersonality(c.Request.Context(), c.Param("id"), req.Personality)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, session)
}

// GetPersonalities returns the fixed partner profile set.
func (h *Handler) GetPersonalities(c *gin.Context) {
	h.Response.Success(c, h.ChatService.Personalities())
}

// SessionWebSocket subscribes the caller to the session's event stream.
func (h *Handler) SessionWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.ChatService.GetSession(sessionID); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Hub.ServeSession(c, sessionID)
}

// GetWebSocketStatus reports subscriber counts (debug endpoint).
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	status := h.Hub.Status()
	status["timestamp"] = time.Now().Format(time.RFC3339)
	c.JSON(http.StatusOK, status)
}

// ========================================
// Account endpoints
// ========================================

// GetAccount returns the account status.
func (h *Handler) GetAccount(c *gin.Context) {
	h.Response.Success(c, h.AccountService.Status())
}

// AddCredits tops up the AI credit balance.
func (h *Handler) AddCredits(c *gin.Context) {
	var req AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	if err := h.AccountService.AddCredits(req.Amount); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, h.AccountService.Status(), "credits added")
}

// SetPremium toggles the premium flag.
func (h *Handler) SetPremium(c *gin.Context) {
	var req SetPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	if err := h.AccountService.SetPremium(req.Premium); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, h.AccountService.Status())
}

// SetAPIKey stores the AI backend credential.
func (h *Handler) SetAPIKey(c *gin.Context) {
	var req SetAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	if err := h.AccountService.SetAPIKey(req.APIKey); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, h.AccountService.Status(), "api key updated")
}

// SetAIMode toggles between AI-backed and simulated replies.
func (h *Handler) SetAIMode(c *gin.Context) {
	var req SetAIModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	if err := h.AccountService.SetAIMode(req.Enabled); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, h.AccountService.Status())
}

// ========================================
// Quiz endpoints
// ========================================

// GetQuiz returns the question bank without answers.
func (h *Handler) GetQuiz(c *gin.Context) {
	h.Response.Success(c, h.QuizService.Questions())
}

// SubmitQuiz grades a full submission.
func (h *Handler) SubmitQuiz(c *gin.Context) {
	var req QuizSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.QuizService.Grade(req.Answers)
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorQuizSubmissionInvalid, err.Error())
		return
	}

	h.Response.Success(c, result)
}

// ========================================
// Tips endpoints
// ========================================

// GetTips returns all tip categories.
func (h *Handler) GetTips(c *gin.Context) {
	h.Response.Success(c, h.TipsService.Categories())
}

// GetTipCategory returns one tip category.
func (h *Handler) GetTipCategory(c *gin.Context) {
	category, err := h.TipsService.Category(c.Param("category"))
	if err != nil {
		h.Response.Error(c, http.StatusNotFound, ErrorTipCategoryNotFound, err.Error())
		return
	}

	h.Response.Success(c, category)
}
