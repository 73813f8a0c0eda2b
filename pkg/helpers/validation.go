package helpers

import (
	"encoding/hex"

	"github.com/go-playground/validator/v10"
)

const (
	MinCIDLength = 46
	MaxCIDLength = 64
)

// CustomValidator wraps go-playground validator with marketplace rules
type CustomValidator struct {
	validate *validator.Validate
}

// NewCustomValidator creates a new custom validator with marketplace rules
func NewCustomValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("content_cid", validateContentCID)
	v.RegisterValidation("hash_hex", validateHashHex)
	v.RegisterValidation("identity", validateIdentity)

	return &CustomValidator{validate: v}
}

// Validate validates a struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

// Var validates a single value against a tag
func (cv *CustomValidator) Var(field interface{}, tag string) error {
	return cv.validate.Var(field, tag)
}

// validateContentCID validates an IPFS style content identifier
func validateContentCID(fl validator.FieldLevel) bool {
	cid := fl.Field().String()
	return len(cid) >= MinCIDLength && len(cid) <= MaxCIDLength && IsCIDCharset(cid)
}

// validateHashHex validates a hex encoded 32 byte digest
func validateHashHex(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// validateIdentity validates an account identity (printable ASCII, no spaces)
func validateIdentity(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}

// IsCIDCharset reports whether s only holds [A-Za-z0-9_-]
func IsCIDCharset(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// IsASCII reports whether every byte of s is 7-bit ASCII
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}
