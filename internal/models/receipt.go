package models

import (
	"strconv"
	"time"
)

// VerifyReceiptResponse mirrors the relevant parts of Apple's verifyReceipt
// payload. Status 0 means the receipt is valid; anything else is a rejection.
type VerifyReceiptResponse struct {
	Status            int                 `json:"status"`
	Environment       string              `json:"environment"`
	LatestReceiptInfo []SubscriptionEntry `json:"latest_receipt_info"`
}

// SubscriptionEntry is one purchase or renewal record inside a verified
// receipt. Apple serializes the millisecond timestamps as decimal strings.
type SubscriptionEntry struct {
	ProductID             string `json:"product_id"`
	TransactionID         string `json:"transaction_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	PurchaseDateMs        string `json:"purchase_date_ms"`
	ExpiresDateMs         string `json:"expires_date_ms"`
}

// PurchaseTime returns the purchase timestamp, or the zero time if the
// field is missing or unparseable.
func (e SubscriptionEntry) PurchaseTime() time.Time {
	return msStringToTime(e.PurchaseDateMs)
}

// ExpiresTime returns the expiration timestamp, or the zero time if the
// field is missing or unparseable. A zero expiration never admits access.
func (e SubscriptionEntry) ExpiresTime() time.Time {
	return msStringToTime(e.ExpiresDateMs)
}

// ActiveAt reports whether the entry grants access at the given instant.
func (e SubscriptionEntry) ActiveAt(now time.Time) bool {
	return e.ExpiresTime().After(now)
}

func msStringToTime(ms string) time.Time {
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(n)
}
