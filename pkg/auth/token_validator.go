package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenValidator accepts HS256 tokens whose subject is the caller identity.
type JWTTokenValidator struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewJWTTokenValidator creates a validator for tokens signed with secret.
// When issuer is set, tokens must carry a matching iss claim.
func NewJWTTokenValidator(secret, issuer string) (*JWTTokenValidator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTTokenValidator{
		secret: []byte(secret),
		issuer: issuer,
		leeway: 30 * time.Second,
	}, nil
}

// ValidateToken verifies signature, expiry and issuer and returns the caller.
func (v *JWTTokenValidator) ValidateToken(ctx context.Context, token string) (*CallerContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &CallerContext{
		Identity: claims.Subject,
		Token:    token,
	}, nil
}

// IssueToken signs a token for identity. Used by tooling and tests.
func (v *JWTTokenValidator) IssueToken(identity string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
