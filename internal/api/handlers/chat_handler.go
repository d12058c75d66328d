package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/WisemanUCE/omegaai-backend/internal/logger"
	"github.com/WisemanUCE/omegaai-backend/internal/models"
	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
	"github.com/WisemanUCE/omegaai-backend/internal/services"
)

// All access-denied rejections share one message so the caller cannot tell a
// bad receipt from an expired subscription or an exhausted quota.
const accessDeniedMessage = "access denied"

type ChatHandler struct {
	chatService services.ChatService
	requestLog  services.RequestLogService // nil when the audit log is disabled
}

func NewChatHandler(chatService services.ChatService, requestLog services.RequestLogService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		requestLog:  requestLog,
	}
}

// Chat - Validate the request, run the admission pipeline, relay the reply
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := decodeChatRequest(r)
	if err != nil {
		code, message := classifyError(err)
		respondWithError(w, code, message)
		h.audit("", r, "", code, start)
		return
	}

	result, err := h.chatService.Chat(r.Context(), req.Receipt, req.Prompt, req.Model)
	if err != nil {
		code, message := classifyError(err)
		logger.LogEvent(logrus.InfoLevel, "Chat request rejected", logrus.Fields{
			"model":  req.Model,
			"status": code,
			"error":  err.Error(),
		})
		respondWithError(w, code, message)
		h.audit("", r, req.Model, code, start)
		return
	}

	respondWithJSON(w, http.StatusOK, models.ChatResponse{Reply: result.Reply})
	h.audit(result.SubscriberID, r, req.Model, http.StatusOK, start)
}

// Usage - Report the subscriber's per-model usage for the current period
func (h *ChatHandler) Usage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req struct {
		Receipt string `json:"receipt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Receipt) == "" {
		respondWithError(w, http.StatusBadRequest, "receipt is required")
		h.audit("", r, "", http.StatusBadRequest, start)
		return
	}

	subscriberID, stats, err := h.chatService.Usage(r.Context(), req.Receipt)
	if err != nil {
		code, message := classifyError(err)
		respondWithError(w, code, message)
		h.audit("", r, "", code, start)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"usage": stats})
	h.audit(subscriberID, r, "", http.StatusOK, start)
}

func decodeChatRequest(r *http.Request) (*models.ChatRequest, error) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidRequest, "invalid request body")
	}

	req.Receipt = strings.TrimSpace(req.Receipt)
	req.Prompt = strings.TrimSpace(req.Prompt)

	if req.Receipt == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidRequest, "receipt is required")
	}
	if req.Prompt == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidRequest, "prompt is required")
	}
	if !models.SupportedModel(req.Model) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidRequest, fmt.Sprintf("unsupported model %q", req.Model))
	}
	return &req, nil
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrReceiptVerification),
		errors.Is(err, apperrors.ErrNoActiveSubscription),
		errors.Is(err, apperrors.ErrQuotaExceeded):
		return http.StatusForbidden, accessDeniedMessage
	case errors.Is(err, apperrors.ErrUpstream), errors.Is(err, apperrors.ErrUpstreamMalformed):
		return http.StatusInternalServerError, "completion service error"
	default:
		logger.LogEvent(logrus.ErrorLevel, "Unclassified pipeline error", logrus.Fields{
			"error": err.Error(),
		})
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *ChatHandler) audit(subscriberID string, r *http.Request, model string, statusCode int, start time.Time) {
	if h.requestLog == nil {
		return
	}
	if err := h.requestLog.LogRequest(subscriberID, r.URL.Path, r.Method, model, statusCode, time.Since(start)); err != nil {
		logger.LogEvent(logrus.ErrorLevel, "Failed to write request log", logrus.Fields{
			"error": err.Error(),
			"path":  r.URL.Path,
		})
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, models.ErrorResponse{Error: message})
}
