// Package auth verifies the bearer credentials callers present and resolves them
// to a stable subject id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingCredential = errors.New("credential is missing")
	ErrInvalidCredential = errors.New("credential is invalid")
	ErrExpiredCredential = errors.New("credential has expired")
)

// Verifier turns an opaque bearer credential into the caller's subject id.
type Verifier interface {
	Verify(ctx context.Context, credential string) (subjectID string, err error)
}

// claims accepts tokens issued with the "uid" claim as well as a plain "sub".
type claims struct {
	UserID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier checks HMAC-signed JWTs. When issuer is non-empty the "iss" claim must match.
func NewJWTVerifier(secret, issuer string) (Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	return &jwtVerifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *jwtVerifier) Verify(_ context.Context, credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", ErrMissingCredential
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(credential, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredCredential
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return "", ErrInvalidCredential
	}
	if v.issuer != "" && !c.VerifyIssuer(v.issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer", ErrInvalidCredential)
	}

	subject := c.UserID
	if subject == "" {
		subject = c.Subject
	}
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}
	return subject, nil
}

// BearerToken pulls the token out of an Authorization header value.
// It returns "" when the header is absent or not in "Bearer <token>" form.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
