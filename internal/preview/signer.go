// Package preview issues and checks the signed tokens that unlock draft
// content.
package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"upfitter/showroom/internal/common"
)

// CookieName carries a verified preview token on subsequent requests.
const CookieName = "__preview"

var (
	ErrDisabled     = errors.New("preview is not configured")
	ErrInvalidToken = errors.New("invalid preview token")
	ErrTokenUsed    = errors.New("preview token already redeemed")
)

// Token is a verified preview token.
type Token struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

// Signer issues and verifies HS256 preview tokens. Redeemed token ids are
// remembered in the cache until they expire.
type Signer struct {
	secretKey []byte
	used      common.CacheInterface
	now       func() time.Time
}

// NewSigner creates a preview token signer
func NewSigner(secretKey []byte, used common.CacheInterface) *Signer {
	return &Signer{
		secretKey: secretKey,
		used:      used,
		now:       time.Now,
	}
}

// Enabled reports whether a secret is configured.
func (s *Signer) Enabled() bool {
	return s != nil && len(s.secretKey) > 0
}

// Issue signs a token for subject that expires after ttl.
func (s *Signer) Issue(subject string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry.
func (s *Signer) Verify(tokenString string) (*Token, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return &Token{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Redeem verifies a token and marks it used. A token redeems once.
func (s *Signer) Redeem(_ context.Context, tokenString string) (*Token, error) {
	tok, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if s.used == nil {
		return tok, nil
	}

	key := "preview_used:" + tok.TokenID
	if !s.used.Add(key, true, tok.ExpiresAt.Sub(s.now())) {
		return nil, ErrTokenUsed
	}
	return tok, nil
}

type contextKey struct{}

// WithToken marks ctx as a preview request.
func WithToken(ctx context.Context, tok *Token) context.Context {
	return context.WithValue(ctx, contextKey{}, tok)
}

// FromContext returns the preview token of the request, if any.
func FromContext(ctx context.Context) (*Token, bool) {
	tok, ok := ctx.Value(contextKey{}).(*Token)
	return tok, ok && tok != nil
}
