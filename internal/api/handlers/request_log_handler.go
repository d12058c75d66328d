package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/WisemanUCE/omegaai-backend/internal/services"
)

type RequestLogHandler struct {
	chatService services.ChatService
	logService  services.RequestLogService
}

func NewRequestLogHandler(chatService services.ChatService, logService services.RequestLogService) *RequestLogHandler {
	return &RequestLogHandler{
		chatService: chatService,
		logService:  logService,
	}
}

// GetSubscriberLogs - Return the receipt holder's own request history.
// The receipt is the only identity we have, so it gates this endpoint the
// same way it gates /chat and /usage.
func (h *RequestLogHandler) GetSubscriberLogs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Receipt string `json:"receipt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Receipt) == "" {
		respondWithError(w, http.StatusBadRequest, "receipt is required")
		return
	}

	subscriberID, _, err := h.chatService.Usage(r.Context(), req.Receipt)
	if err != nil {
		code, message := classifyError(err)
		respondWithError(w, code, message)
		return
	}

	// Parse time range from query parameters
	from, to := getTimeRange(r)

	logs, err := h.logService.GetSubscriberLogs(subscriberID, from, to)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}

func getTimeRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now()
	from := now.AddDate(0, -1, 0) // Default to last 30 days
	to := now

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		if parsedFrom, err := time.Parse(time.RFC3339, fromStr); err == nil {
			from = parsedFrom
		}
	}

	if toStr := r.URL.Query().Get("to"); toStr != "" {
		if parsedTo, err := time.Parse(time.RFC3339, toStr); err == nil {
			to = parsedTo
		}
	}

	return from, to
}
