package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionEntry_ActiveAt(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	future := SubscriptionEntry{ExpiresDateMs: "1787000000000"} // 2026-08-17
	assert.True(t, future.ActiveAt(now))

	past := SubscriptionEntry{ExpiresDateMs: "1755000000000"} // 2025-08-12
	assert.False(t, past.ActiveAt(now))
}

func TestSubscriptionEntry_UnparseableTimestampsNeverAdmit(t *testing.T) {
	now := time.Now()

	assert.False(t, SubscriptionEntry{ExpiresDateMs: ""}.ActiveAt(now))
	assert.False(t, SubscriptionEntry{ExpiresDateMs: "soon"}.ActiveAt(now))
	assert.True(t, SubscriptionEntry{PurchaseDateMs: "garbage"}.PurchaseTime().IsZero())
}
