package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorRole is the role claim required on admin routes.
const OperatorRole = "operator"

var errOperatorRole = errors.New("operator role required")

// OperatorClaims is the JWT payload of an operator token.
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueOperatorToken signs an HS256 operator token for subject valid for ttl.
func IssueOperatorToken(signingKey string, issuer string, subject string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("operator subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("operator token ttl must be positive")
	}
	claims := OperatorClaims{
		Role: OperatorRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
}

// operatorVerifier validates operator bearer tokens.
type operatorVerifier struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

func newOperatorVerifier(signingKey string, issuer string, now func() time.Time) *operatorVerifier {
	if now == nil {
		now = time.Now
	}
	return &operatorVerifier{signingKey: []byte(signingKey), issuer: issuer, now: now}
}

func (verifier *operatorVerifier) Verify(raw string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return verifier.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(verifier.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(verifier.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Role != OperatorRole {
		return nil, errOperatorRole
	}
	return claims, nil
}
