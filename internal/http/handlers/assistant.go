package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duda4418/dishwise-backend/internal/http/response"
	"github.com/duda4418/dishwise-backend/internal/services"
)

type AssistantHandler struct {
	workflow    services.WorkflowService
	sessions    services.SessionService
	formSubmits services.FormSubmitService
}

func NewAssistantHandler(
	workflow services.WorkflowService,
	sessions services.SessionService,
	formSubmits services.FormSubmitService,
) *AssistantHandler {
	return &AssistantHandler{workflow: workflow, sessions: sessions, formSubmits: formSubmits}
}

type sendMessageReq struct {
	SessionID      *uuid.UUID     `json:"session_id"`
	Text           string         `json:"text"`
	Locale         string         `json:"locale"`
	ImagesB64      []string       `json:"images_b64"`
	ImageMimeTypes []string       `json:"image_mime_types"`
	Metadata       map[string]any `json:"metadata"`
}

// POST /api/assistant/messages
func (h *AssistantHandler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" && len(req.ImagesB64) == 0 {
		response.RespondError(c, http.StatusBadRequest, "empty_message", errors.New("message needs text or images"))
		return
	}

	exchange, err := h.workflow.HandleMessage(c.Request.Context(), services.UserMessageRequest{
		SessionID:      req.SessionID,
		Text:           strings.TrimSpace(req.Text),
		Locale:         req.Locale,
		ImagesB64:      req.ImagesB64,
		ImageMimeTypes: req.ImageMimeTypes,
		Metadata:       req.Metadata,
	})
	if err != nil {
		if errors.Is(err, services.ErrSessionClosed) {
			response.RespondError(c, http.StatusConflict, "session_closed", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "message_failed", err)
		return
	}

	response.RespondOK(c, gin.H{
		"session_id":           exchange.SessionID,
		"user_message_id":      exchange.UserMessageID,
		"assistant_message_id": exchange.AssistantMessageID,
		"answer":               exchange.Answer,
		"form_id":              exchange.FormID,
	})
}

// GET /api/assistant/sessions?limit=50
func (h *AssistantHandler) ListSessions(c *gin.Context) {
	limit := parseLimit(c, 50)
	sessions, err := h.sessions.List(c.Request.Context(), limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_sessions_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/assistant/sessions/:id/history?limit=100
func (h *AssistantHandler) GetHistory(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	limit := parseLimit(c, 100)
	session, messages, err := h.sessions.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			response.RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"session": session, "history": messages})
}

type sessionFeedbackReq struct {
	Rating *int    `json:"rating"`
	Text   *string `json:"text"`
}

// POST /api/assistant/sessions/:id/feedback
func (h *AssistantHandler) SubmitFeedback(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req sessionFeedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Rating == nil && req.Text == nil {
		response.RespondError(c, http.StatusBadRequest, "empty_feedback", errors.New("feedback needs a rating or text"))
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		response.RespondError(c, http.StatusBadRequest, "invalid_rating", errors.New("rating must be between 1 and 5"))
		return
	}
	if err := h.sessions.SetFeedback(c.Request.Context(), sessionID, req.Rating, req.Text); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			response.RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "feedback_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "recorded"})
}

type submitFormReq struct {
	Answers []services.FormAnswerInput `json:"answers"`
}

// POST /api/assistant/forms/:id/submit
func (h *AssistantHandler) SubmitForm(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_form_id", err)
		return
	}
	var req submitFormReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.formSubmits.Submit(c.Request.Context(), formID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFormNotFound):
			response.RespondError(c, http.StatusNotFound, "form_not_found", err)
		case errors.Is(err, services.ErrFormClosed):
			response.RespondError(c, http.StatusConflict, "form_closed", err)
		case errors.Is(err, services.ErrMissingAnswer), errors.Is(err, services.ErrUnknownOption):
			response.RespondError(c, http.StatusBadRequest, "invalid_submission", err)
		default:
			response.RespondError(c, http.StatusInternalServerError, "submit_failed", err)
		}
		return
	}
	response.RespondOK(c, gin.H{
		"form_id":    result.FormID,
		"session_id": result.SessionID,
		"kind":       result.Kind,
		"answers":    result.Answers,
	})
}

// POST /api/assistant/forms/:id/dismiss
func (h *AssistantHandler) DismissForm(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_form_id", err)
		return
	}
	if err := h.formSubmits.Dismiss(c.Request.Context(), formID); err != nil {
		switch {
		case errors.Is(err, services.ErrFormNotFound):
			response.RespondError(c, http.StatusNotFound, "form_not_found", err)
		case errors.Is(err, services.ErrFormClosed):
			response.RespondError(c, http.StatusConflict, "form_closed", err)
		default:
			response.RespondError(c, http.StatusInternalServerError, "dismiss_failed", err)
		}
		return
	}
	response.RespondOK(c, gin.H{"status": "dismissed"})
}

func parseLimit(c *gin.Context, fallback int) int {
	limit := fallback
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	return limit
}
