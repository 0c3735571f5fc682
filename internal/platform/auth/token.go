package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints signed, time-limited bearer tokens at login.
type Issuer struct {
	issuer     string
	signingKey []byte
	ttl        time.Duration
}

func NewIssuer(issuer string, signingKey []byte, ttl time.Duration) *Issuer {
	return &Issuer{issuer: issuer, signingKey: signingKey, ttl: ttl}
}

// Issue returns a signed token for the given identity. HospitalID is empty
// for patients.
func (i *Issuer) Issue(userID, username, role, hospitalID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username:   username,
		Role:       role,
		HospitalID: hospitalID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
