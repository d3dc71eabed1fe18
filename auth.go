package restaurantql

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Issuer is the "iss" claim of the tokens created by IssueToken (and required when they are checked)
const Issuer = "restaurantql"

type contextKey int

const subjectKey contextKey = iota

// authError is returned to the client when a mutation is attempted without a valid token
type authError struct{}

func (authError) Error() string { return "a valid bearer token is required for mutations" }
func (authError) Code() string  { return "UNAUTHENTICATED" }

var errUnauthenticated error = authError{}

type authHandler struct {
	inner  http.Handler
	secret []byte
}

// ServeHTTP gets the subject from the JWT token in the HTTP Authorization Header
// and adds it to the request context so the resolvers can check that it's authorised.
// A missing or invalid token is not an error here as queries do not need one.
func (h *authHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.inner.ServeHTTP(w, func(r *http.Request) *http.Request {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return r // no auth hdr
		}
		subject, err := ParseToken(h.secret, authHeader[len("Bearer "):])
		if err != nil {
			return r // token invalid
		}
		return r.WithContext(context.WithValue(r.Context(), subjectKey, subject))
	}(r))
}

// Subject returns the subject of the (valid) token that came with the request, if any
func Subject(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok && s != ""
}

// IssueToken returns a JWT token for the given subject (eg the name of a client application)
// that allows mutations until it expires.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("no secret to sign the token with")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}

// ParseToken checks the signature, expiry and issuer of a token and returns its subject
func ParseToken(secret []byte, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || !claims.VerifyIssuer(Issuer, true) || claims.Subject == "" {
		return "", fmt.Errorf("token not valid")
	}
	return claims.Subject, nil
}
