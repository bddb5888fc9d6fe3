// Package api implements the blog REST API, the contact relay, the client
// config endpoint and the server-rendered blog pages using chi.
package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
	AuthModeJWT      = "jwt"
)

// AuthConfig selects how author requests are authenticated.
//
//   - "disabled": every request passes.
//   - "token": requests must carry "Authorization: Bearer <Token>".
//   - "jwt": the bearer value must be an HS256 JWT signed with Secret whose
//     "role" claim is "author" or "admin".
type AuthConfig struct {
	Mode   string
	Token  string
	Secret string
}

// AuthMiddleware returns middleware that enforces cfg.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Mode == AuthModeDisabled || cfg.Mode == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			bearer, found := strings.CutPrefix(auth, "Bearer ")
			if !found || bearer == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}

			switch cfg.Mode {
			case AuthModeToken:
				if subtle.ConstantTimeCompare([]byte(bearer), []byte(cfg.Token)) != 1 {
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
			case AuthModeJWT:
				role, err := jwtRole(bearer, []byte(cfg.Secret))
				if err != nil {
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
				if role != "author" && role != "admin" {
					writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
					return
				}
			default:
				writeJSON(w, http.StatusInternalServerError, errorBody("unknown auth mode"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func jwtRole(token string, secret []byte) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	role, _ := claims["role"].(string)
	return strings.ToLower(role), nil
}
