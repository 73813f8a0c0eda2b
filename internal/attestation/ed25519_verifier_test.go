package attestation

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519Verifier(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	verifier, err := NewEd25519VerifierFromHex(hex.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(pub), verifier.PublicKeyHex())

	msg := []byte("attested content")
	sig := ed25519.Sign(priv, msg)

	t.Run("ValidSignature", func(t *testing.T) {
		assert.NoError(t, verifier.Verify(msg, sig))
	})

	t.Run("TamperedMessage", func(t *testing.T) {
		assert.ErrorIs(t, verifier.Verify([]byte("attested content!"), sig), ErrInvalidSignature)
	})

	t.Run("ShortSignature", func(t *testing.T) {
		assert.ErrorIs(t, verifier.Verify(msg, sig[:10]), ErrInvalidSignature)
	})
}

func TestNewEd25519VerifierFromHex_Invalid(t *testing.T) {
	_, err := NewEd25519VerifierFromHex("not-hex")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = NewEd25519VerifierFromHex("abcd")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}
