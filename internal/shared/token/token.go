package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims grant access to a single colony.
type Claims struct {
	ColonyID string `json:"colony_id"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, expiration time.Duration) (*Issuer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters long")
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), expiration: expiration, now: time.Now}, nil
}

func (i *Issuer) Generate(colonyID string) (string, error) {
	now := i.now()
	claims := Claims{
		ColonyID: colonyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   "colony_" + colonyID,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign colony token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.ColonyID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
