package service

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/pkg/helpers"
)

// AttestationVerifier checks a validator signature over a canonical message.
type AttestationVerifier interface {
	Verify(message, signature []byte) error
}

// ContentClaims are the creator's declared facts about submitted content.
// Signature is an optional validator attestation over the same facts.
type ContentClaims struct {
	QuestionLength uint32
	AnswerLength   uint32
	ContentHash    [32]byte
	AnswerHash     [32]byte
	Timestamp      int64
	Signature      []byte
}

// VerifiedContent is the result of a successful integrity check.
type VerifiedContent struct {
	ContentHash [32]byte
	AnswerHash  [32]byte
	Attested    bool
}

// ContentIntegrityCheck verifies a content reference against its claims.
type ContentIntegrityCheck interface {
	Verify(ref models.ContentReference, claims *ContentClaims) (VerifiedContent, error)
}

type contentIntegrityCheck struct {
	policy   Policy
	verifier AttestationVerifier
}

// NewContentIntegrityCheck creates the checker. When verifier is nil no
// attestation is demanded; otherwise every submission must carry a valid one.
func NewContentIntegrityCheck(policy Policy, verifier AttestationVerifier) ContentIntegrityCheck {
	return &contentIntegrityCheck{policy: policy, verifier: verifier}
}

func (c *contentIntegrityCheck) Verify(ref models.ContentReference, claims *ContentClaims) (VerifiedContent, error) {
	switch ref.Kind {
	case models.ContentKindInline:
		if ref.Inline == nil {
			return VerifiedContent{}, errs.ErrInvalidContentReference
		}
		return c.verifyInline(ref.Inline, claims)
	case models.ContentKindExternal:
		if ref.External == nil {
			return VerifiedContent{}, errs.ErrInvalidContentReference
		}
		return c.verifyExternal(ref.External, claims)
	default:
		return VerifiedContent{}, fmt.Errorf("content kind %d: %w", ref.Kind, errs.ErrInvalidContentReference)
	}
}

func (c *contentIntegrityCheck) verifyInline(content *models.InlineContent, claims *ContentClaims) (VerifiedContent, error) {
	if claims == nil {
		return VerifiedContent{}, fmt.Errorf("inline content without claims: %w", errs.ErrInvalidContentReference)
	}
	if len(content.Text) > c.policy.MaxQuestionLength {
		return VerifiedContent{}, errs.ErrContentTooLong
	}
	if len(content.EncryptedAnswer) > c.policy.MaxAnswerLength {
		return VerifiedContent{}, errs.ErrAnswerTooLong
	}
	if !helpers.IsASCII(content.Text) {
		return VerifiedContent{}, errs.ErrInvalidCharacters
	}

	if uint64(len(content.Text)) != uint64(claims.QuestionLength) {
		return VerifiedContent{}, errs.ErrContentLengthMismatch
	}
	if uint64(len(content.EncryptedAnswer)) != uint64(claims.AnswerLength) {
		return VerifiedContent{}, errs.ErrAnswerLengthMismatch
	}

	if sha256.Sum256([]byte(content.Text)) != claims.ContentHash {
		return VerifiedContent{}, errs.ErrContentHashMismatch
	}
	if sha256.Sum256(content.EncryptedAnswer) != claims.AnswerHash {
		return VerifiedContent{}, errs.ErrAnswerHashMismatch
	}

	attested, err := c.verifyAttestation(claims)
	if err != nil {
		return VerifiedContent{}, err
	}
	return VerifiedContent{ContentHash: claims.ContentHash, AnswerHash: claims.AnswerHash, Attested: attested}, nil
}

func (c *contentIntegrityCheck) verifyExternal(content *models.ExternalContent, claims *ContentClaims) (VerifiedContent, error) {
	if len(content.CID) < c.policy.MinCIDLength || len(content.CID) > c.policy.MaxCIDLength || !helpers.IsCIDCharset(content.CID) {
		return VerifiedContent{}, errs.ErrInvalidCIDFormat
	}
	if claims == nil {
		if c.verifier != nil {
			return VerifiedContent{}, fmt.Errorf("external content without claims: %w", errs.ErrInvalidValidatorSignature)
		}
		return VerifiedContent{ContentHash: content.Hash}, nil
	}
	if claims.ContentHash != content.Hash {
		return VerifiedContent{}, errs.ErrContentHashMismatch
	}

	attested, err := c.verifyAttestation(claims)
	if err != nil {
		return VerifiedContent{}, err
	}
	return VerifiedContent{ContentHash: content.Hash, AnswerHash: claims.AnswerHash, Attested: attested}, nil
}

func (c *contentIntegrityCheck) verifyAttestation(claims *ContentClaims) (bool, error) {
	if c.verifier == nil {
		return false, nil
	}
	if err := c.verifier.Verify(AttestationMessage(claims), claims.Signature); err != nil {
		return false, fmt.Errorf("%v: %w", err, errs.ErrInvalidValidatorSignature)
	}
	return true, nil
}

// AttestationMessage builds the signed message:
// LE32 question length, LE32 answer length, content hash, answer hash, LE64 timestamp.
func AttestationMessage(claims *ContentClaims) []byte {
	msg := make([]byte, 0, 4+4+32+32+8)
	msg = binary.LittleEndian.AppendUint32(msg, claims.QuestionLength)
	msg = binary.LittleEndian.AppendUint32(msg, claims.AnswerLength)
	msg = append(msg, claims.ContentHash[:]...)
	msg = append(msg, claims.AnswerHash[:]...)
	msg = binary.LittleEndian.AppendUint64(msg, uint64(claims.Timestamp))
	return msg
}
