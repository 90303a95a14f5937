package eventhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Compute returns the deterministic fingerprint of a business event. The hash
// covers the event code, the canonicalized payload and the caller-supplied
// idempotency token; two logically identical events always hash the same, so
// the unique constraint on the hash column guarantees at-most-once posting.
func Compute(eventCode string, payload any, eventID *string) (string, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize payload: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(eventCode))
	h.Write([]byte{0})
	h.Write(canonical)
	h.Write([]byte{0})
	if eventID != nil {
		h.Write([]byte(*eventID))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Canonicalize renders payload as JSON with object keys in sorted order.
// Marshaling through an intermediate interface value normalizes struct field
// order, map ordering and insignificant whitespace, so equivalent payloads
// produce identical bytes.
func Canonicalize(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var intermediate any
	if err := json.Unmarshal(raw, &intermediate); err != nil {
		return nil, err
	}

	// encoding/json sorts map keys on marshal.
	return json.Marshal(intermediate)
}
