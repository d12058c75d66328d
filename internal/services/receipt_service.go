package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/WisemanUCE/omegaai-backend/internal/models"
	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
)

const (
	productionVerifyURL = "https://buy.itunes.apple.com/verifyReceipt"
	sandboxVerifyURL    = "https://sandbox.itunes.apple.com/verifyReceipt"
)

// ReceiptVerifier confirms a device-supplied purchase receipt with the
// platform's validation service. Implementations map every transport error,
// non-success status, and malformed payload to ErrReceiptVerification:
// a receipt that cannot be confirmed is treated the same as an invalid one.
type ReceiptVerifier interface {
	Verify(ctx context.Context, receipt string) (*models.VerifyReceiptResponse, error)
}

type appleReceiptService struct {
	url          string
	sharedSecret string
	httpClient   *http.Client
}

// NewAppleReceiptService returns a verifier backed by Apple's verifyReceipt
// endpoint, sandbox or production depending on the environment flag.
func NewAppleReceiptService(sharedSecret string, sandbox bool) ReceiptVerifier {
	url := productionVerifyURL
	if sandbox {
		url = sandboxVerifyURL
	}
	return &appleReceiptService{
		url:          url,
		sharedSecret: sharedSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyReceiptRequest struct {
	ReceiptData string `json:"receipt-data"`
	Password    string `json:"password"`
}

func (s *appleReceiptService) Verify(ctx context.Context, receipt string) (*models.VerifyReceiptResponse, error) {
	payload, err := json.Marshal(verifyReceiptRequest{
		ReceiptData: receipt,
		Password:    s.sharedSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", apperrors.ErrReceiptVerification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", apperrors.ErrReceiptVerification, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReceiptVerification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: verification service returned %d", apperrors.ErrReceiptVerification, resp.StatusCode)
	}

	var result models.VerifyReceiptResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", apperrors.ErrReceiptVerification, err)
	}

	if result.Status != 0 {
		return nil, fmt.Errorf("%w: receipt status %d", apperrors.ErrReceiptVerification, result.Status)
	}

	return &result, nil
}
