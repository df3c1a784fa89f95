package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSecret signs tokens minted in tests and by the test service
var TokenSecret = []byte("clickpot-test-secret")

// MintToken returns an HS256 token for subject expiring at exp
func MintToken(subject string, exp time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(TokenSecret)
	if err != nil {
		panic(err)
	}
	return token
}

// MintTokenWithoutExpiry returns a signed token that has no exp claim
func MintTokenWithoutExpiry(subject string) string {
	claims := jwt.RegisteredClaims{Subject: subject}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(TokenSecret)
	if err != nil {
		panic(err)
	}
	return token
}
