package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried in an access token.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, expiresDays int) *Signer {
	if expiresDays <= 0 {
		expiresDays = 14
	}
	return &Signer{secret: []byte(secret), ttl: time.Duration(expiresDays) * 24 * time.Hour, now: time.Now}
}

// Sign creates a token for the user and returns it with its expiry.
func (s *Signer) Sign(id, username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// Parse verifies tok and returns its claims.
func (s *Signer) Parse(tok string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid || claims.ID == "" || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// anonClaims identify a guest. They carry no user fields, so Parse rejects
// them, and ParseAnon rejects user tokens.
type anonClaims struct {
	Anon string `json:"anon"`
	jwt.RegisteredClaims
}

// SignAnon wraps a guest ID in a signed token for the anonymous cookie.
func (s *Signer) SignAnon(id string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, anonClaims{
		Anon:             id,
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(s.now())},
	})
	return t.SignedString(s.secret)
}

// ParseAnon verifies an anonymous cookie value and returns the guest ID.
func (s *Signer) ParseAnon(tok string) (string, error) {
	claims := &anonClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid || claims.Anon == "" {
		return "", ErrInvalidToken
	}
	return claims.Anon, nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}
