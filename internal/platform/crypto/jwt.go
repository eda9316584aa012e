package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "bookshelf"

var signingMethod = jwt.SigningMethodHS256

// Claims is the payload of an admin session cookie. RegisteredClaims.ID is
// the jti checked against the revocation list.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func newTokenID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// GenerateToken signs a session token valid for ttl and returns it with its jti.
func GenerateToken(secret, subject, role string, ttl time.Duration) (token, jti string, err error) {
	if jti, err = newTokenID(); err != nil {
		return "", "", err
	}

	issued := time.Now().UTC()
	claims := Claims{
		Sub:  subject,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
	if token, err = jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret)); err != nil {
		return "", "", err
	}
	return token, jti, nil
}

// ParseToken verifies signature, issuer and expiry. Tokens signed with any
// other algorithm are rejected.
func ParseToken(secret, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
