package cmi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	// Configuration errors, distinct from a signature mismatch: a missing
	// store key means the merchant setup is broken, not that the payload
	// was forged.
	ErrStoreKeyMissing = errors.New("cmi: store key not configured")
	ErrNoParams        = errors.New("cmi: empty parameter set")

	ErrSignatureMismatch = errors.New("cmi: signature mismatch")
)

// Signer computes the gateway's symmetric signature: the values of an
// ordered parameter subset concatenated, store key appended, SHA-256,
// uppercase hex.
type Signer struct {
	storeKey string
}

func NewSigner(storeKey string) *Signer {
	return &Signer{storeKey: storeKey}
}

// Sign hashes params in the caller-specified key order. Keys absent from
// params are skipped; the order slice is never reordered here because the
// outbound and inbound contracts use different orders.
func (s *Signer) Sign(order []string, params map[string]string) (string, error) {
	if s.storeKey == "" {
		return "", ErrStoreKeyMissing
	}
	if len(params) == 0 {
		return "", ErrNoParams
	}

	var plain strings.Builder
	for _, key := range order {
		if value, ok := params[key]; ok {
			plain.WriteString(value)
		}
	}
	plain.WriteString(s.storeKey)

	sum := sha256.Sum256([]byte(plain.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}

// Verify recomputes the signature over the given order and compares it to
// the provided hash byte-for-byte in constant time.
func (s *Signer) Verify(order []string, params map[string]string, provided string) error {
	expected, err := s.Sign(order, params)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
