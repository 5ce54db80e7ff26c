// Package auth issues and verifies the signed identity tokens used by the
// API, and derives the revocation key the session ledger is indexed by.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the identity embedded in a token. IssuedAt and the jti
// nonce make every minting unique, so each login owns a distinct signature
// and therefore a distinct session ledger entry.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GenerateToken signs an HS256 token embedding the user's id, username and
// role. Tokens carry no expiry claim: session lifetime is controlled by the
// server-side ledger, not by the token itself.
func GenerateToken(user *models.User, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID:   user.ID,
		Username: user.UserName,
		Role:     string(user.Role),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and returns the embedded claims.
// A structurally broken token yields common.ErrTokenMalformed and a token
// whose signature does not verify yields common.ErrTokenSignatureInvalid.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, common.ErrTokenSignatureInvalid
		}
		return nil, common.ErrTokenMalformed
	}

	if !token.Valid {
		return nil, common.ErrTokenMalformed
	}

	return claims, nil
}

// TokenSignature returns the signature segment of a compact JWT, the key
// the session ledger stores. It is computed from the raw bytes without
// decoding the payload, so a tampered token cannot name another session's
// key: any change to the signature simply produces a ledger miss.
// A token that is not three dot-separated segments yields "".
func TokenSignature(tokenString string) string {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}
