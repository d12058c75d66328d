package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
)

const openAIChatCompletionURL = "https://api.openai.com/v1/chat/completions"

// Every forwarded prompt is framed by the same instruction; the client never
// controls the system role.
const systemInstruction = "You are OmegaAI, a concise and helpful assistant inside a mobile app. Answer the user's question directly."

// CompletionProvider forwards a prompt to the upstream chat-completion API
// and returns the reply text of the first choice.
type CompletionProvider interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

type openAICompletionService struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewOpenAICompletionService(apiKey string) CompletionProvider {
	return &openAICompletionService{
		url:        openAIChatCompletionURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *openAICompletionService) Complete(ctx context.Context, model, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", apperrors.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", apperrors.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: completion service returned %d", apperrors.ErrUpstream, resp.StatusCode)
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", apperrors.ErrUpstreamMalformed, err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", apperrors.ErrUpstreamMalformed)
	}

	reply := strings.TrimSpace(result.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty completion text", apperrors.ErrUpstreamMalformed)
	}

	return reply, nil
}
