package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WisemanUCE/omegaai-backend/internal/models"
	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
	"github.com/WisemanUCE/omegaai-backend/internal/services"
)

// fakeChatService records whether the pipeline was invoked at all.
type fakeChatService struct {
	result    *services.ChatResult
	err       error
	chatCalls int
	usageID   string
	usage     []services.UsageStats
	usageErr  error
}

func (f *fakeChatService) Chat(ctx context.Context, receipt, prompt, model string) (*services.ChatResult, error) {
	f.chatCalls++
	return f.result, f.err
}

func (f *fakeChatService) Usage(ctx context.Context, receipt string) (string, []services.UsageStats, error) {
	return f.usageID, f.usage, f.usageErr
}

func postChat(t *testing.T, h *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestChatHandler_MalformedBodyIsBadRequest(t *testing.T) {
	svc := &fakeChatService{}
	rr := postChat(t, NewChatHandler(svc, nil), "{not json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, svc.chatCalls)
}

func TestChatHandler_FieldValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing receipt", `{"prompt":"Hello","model":"gpt-4o"}`, "receipt is required"},
		{"blank receipt", `{"receipt":"  ","prompt":"Hello","model":"gpt-4o"}`, "receipt is required"},
		{"missing prompt", `{"receipt":"blob","model":"gpt-4o"}`, "prompt is required"},
		{"blank prompt", `{"receipt":"blob","prompt":" \n ","model":"gpt-4o"}`, "prompt is required"},
		{"missing model", `{"receipt":"blob","prompt":"Hello"}`, `unsupported model ""`},
		{"unknown model", `{"receipt":"blob","prompt":"Hello","model":"gpt-7"}`, `unsupported model "gpt-7"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChatService{}
			rr := postChat(t, NewChatHandler(svc, nil), tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantErr, errorBody(t, rr))
			// Validation failures must never start the pipeline.
			assert.Equal(t, 0, svc.chatCalls)
		})
	}
}

func TestDecodeChatRequest_FailuresAreInvalidRequestKind(t *testing.T) {
	bodies := []string{
		"{not json",
		`{"prompt":"Hello","model":"gpt-4o"}`,
		`{"receipt":"blob","model":"gpt-4o"}`,
		`{"receipt":"blob","prompt":"Hello","model":"gpt-7"}`,
	}

	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
		_, err := decodeChatRequest(req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidRequest))
	}
}

func TestUsageHandler_AuditsRejectedRequests(t *testing.T) {
	audit := &fakeRequestLog{}
	req := httptest.NewRequest(http.MethodPost, "/usage", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	NewChatHandler(&fakeChatService{}, audit).Usage(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "/usage", audit.entries[0].Endpoint)
	assert.Equal(t, http.StatusBadRequest, audit.entries[0].StatusCode)
}

func TestChatHandler_AccessDeniedKindsAreIndistinguishable(t *testing.T) {
	kinds := []error{
		apperrors.ErrReceiptVerification,
		apperrors.ErrNoActiveSubscription,
		apperrors.ErrQuotaExceeded,
	}

	for _, kind := range kinds {
		t.Run(kind.Error(), func(t *testing.T) {
			svc := &fakeChatService{err: kind}
			rr := postChat(t, NewChatHandler(svc, nil), `{"receipt":"blob","prompt":"Hello","model":"gpt-4o"}`)

			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Equal(t, accessDeniedMessage, errorBody(t, rr))
		})
	}
}

func TestChatHandler_UpstreamFailuresAreServerErrors(t *testing.T) {
	for _, kind := range []error{apperrors.ErrUpstream, apperrors.ErrUpstreamMalformed} {
		t.Run(kind.Error(), func(t *testing.T) {
			svc := &fakeChatService{err: kind}
			rr := postChat(t, NewChatHandler(svc, nil), `{"receipt":"blob","prompt":"Hello","model":"gpt-4o"}`)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, "completion service error", errorBody(t, rr))
		})
	}
}

func TestChatHandler_UnclassifiedErrorIsGeneric(t *testing.T) {
	svc := &fakeChatService{err: assert.AnError}
	rr := postChat(t, NewChatHandler(svc, nil), `{"receipt":"blob","prompt":"Hello","model":"gpt-4o"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", errorBody(t, rr))
}

func TestChatHandler_SuccessRelaysReply(t *testing.T) {
	svc := &fakeChatService{result: &services.ChatResult{Reply: "Hi there", SubscriberID: "T1"}}
	rr := postChat(t, NewChatHandler(svc, nil), `{"receipt":"blob","prompt":"Hello","model":"gpt-4o-mini"}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body models.ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Hi there", body.Reply)
}

func TestUsageHandler_RequiresReceipt(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/usage", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	NewChatHandler(&fakeChatService{}, nil).Usage(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUsageHandler_ReportsStats(t *testing.T) {
	svc := &fakeChatService{
		usageID: "T1",
		usage: []services.UsageStats{
			{Model: models.ProModel, CurrentCount: 3, Limit: 800, RemainingRequests: 797},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/usage", strings.NewReader(`{"receipt":"blob"}`))
	rr := httptest.NewRecorder()
	NewChatHandler(svc, nil).Usage(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"used":3`)
	assert.Contains(t, rr.Body.String(), `"limit":800`)
}

func TestHealthCheck_ReturnsStatusAndModels(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	HealthCheckHandler()(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body HealthCheckResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "API is running", body.Status)
	assert.Contains(t, body.Models, models.ProModel)
}
