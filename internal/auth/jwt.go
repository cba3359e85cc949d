package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"readsync/internal/apperr"
	"readsync/pkg/models"
)

// TokenTTL is how long an issued token stays valid. It is fixed.
const TokenTTL = 24 * time.Hour

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret []byte) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret required")
	}
	return &Tokens{secret: secret, now: time.Now}, nil
}

// Issue returns a signed token whose subject is the user id.
func (t *Tokens) Issue(u models.User) (string, error) {
	now := t.now()
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr. Any failure (malformed, expired, foreign key,
// unexpected algorithm, missing subject) is Unauthenticated.
func (t *Tokens) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, apperr.Unauthenticated("Authentication required.")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "Invalid or expired token.", Err: err}
	}
	return claims, nil
}
