package attestation

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPublicKey = errors.New("invalid validator public key")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Ed25519Verifier checks content attestations signed by a single validator key.
type Ed25519Verifier struct {
	publicKey ed25519.PublicKey
}

// NewEd25519Verifier builds a verifier from a raw public key.
func NewEd25519Verifier(publicKey ed25519.PublicKey) (*Ed25519Verifier, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidPublicKey, len(publicKey))
	}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, publicKey)
	return &Ed25519Verifier{publicKey: key}, nil
}

// NewEd25519VerifierFromHex parses a hex encoded public key.
func NewEd25519VerifierFromHex(publicKeyHex string) (*Ed25519Verifier, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return NewEd25519Verifier(raw)
}

// Verify checks signature over message.
func (v *Ed25519Verifier) Verify(message, signature []byte) error {
	if len(signature) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(v.publicKey, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// PublicKeyHex returns the configured key for logging.
func (v *Ed25519Verifier) PublicKeyHex() string {
	return hex.EncodeToString(v.publicKey)
}
