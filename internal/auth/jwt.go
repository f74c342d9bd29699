package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is the iss claim of every token the dev server signs.
	Issuer = "snippets-guru"

	// TokenLifetime matches the long-lived tokens of the hosted service.
	TokenLifetime = 2 * 365 * 24 * time.Hour
)

var (
	// ErrTokenExpired is returned by Validate for a token past its exp claim.
	ErrTokenExpired = errors.New("auth: token expired")
	ErrMissingToken = errors.New("auth: missing bearer token")
)

// TokenService signs and validates HS256 bearer tokens.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), lifetime: TokenLifetime}, nil
}

// claims is the token payload. The user ID travels in "sub":
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"<user id>","iss":"snippets-guru","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for userID valid for TokenLifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.lifetime)
}

// GenerateWithDuration issues a token valid for d. A negative d yields an
// already expired token.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses tokenStr and returns the user ID in its "sub" claim.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - the signature matches the secret
//   - the algorithm is HS256; a token claiming "none" or RS256 is rejected
//     before the secret is ever used as a key
//   - exp is present and in the future
//   - iss is "snippets-guru"
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The client only holds the token, not the key, so this is informational:
// it tells the user when a stored token will stop working. ok is false for
// tokens that are not JWTs or carry no exp claim.
func TokenExpiry(tokenStr string) (exp time.Time, ok bool) {
	var c jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &c); err != nil {
		return time.Time{}, false
	}
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}
