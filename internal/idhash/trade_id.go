// Package idhash derives deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(symbol|entry_date|exit_reason), entry_date as YYYY-MM-DD.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(symbol string, entryDate time.Time, exitReason string) string {
	data := fmt.Sprintf("%s|%s|%s",
		symbol,
		entryDate.UTC().Format("2006-01-02"),
		exitReason,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
