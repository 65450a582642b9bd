package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

// HashTransfer generates a SHA-256 hash of a transfer's identity-bearing
// fields. Used to detect duplicate submissions of the same transfer request.
func (t *Transfer) HashTransfer() string {
	data := fmt.Sprintf("%f%s%s%s%s", t.SendAmount, t.SendCurrency, t.ReceiveCurrency, t.UserID, t.Recipient.AccountNumber)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
