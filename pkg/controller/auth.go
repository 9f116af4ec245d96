package controller

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"waitlist/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// SubjectKey is the context key under which the authenticated token subject is stored.
	SubjectKey CtxKey = "Subject"
)

// ParseRSAPublicKey parses a PEM encoded RSA public key.
func ParseRSAPublicKey(pem string) (*rsa.PublicKey, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	return key, nil
}

// WithBearerAuth returns a middleware that only lets requests through that
// carry an "Authorization: Bearer <token>" header with an RS256 token signed
// by the private counterpart of key. The token subject is put in the context.
func WithBearerAuth(next http.Handler, key *rsa.PublicKey) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="waitlist"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

			return
		}

		claims := jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return key, nil
		}); err != nil {
			logger.Debug(r.Context(), "rejected bearer token", zap.Error(err))
			w.Header().Set("WWW-Authenticate", `Bearer realm="waitlist", error="invalid_token"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
		ctx = logger.WithFields(ctx, zap.String("subject", claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
