// Package auth guards the API with deploy-time bearer tokens. User-facing
// authentication lives in the platform fronting this service; a request that
// carries a configured token is trusted.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"gitea.jw6.us/james/rolodex/internal/config"
)

// Service validates bearer tokens from the Authorization header.
//
// Configured tokens may be plaintext or bcrypt hashes ($2a$/$2b$ prefix), so
// an operator can keep only hashes in the environment. Plaintext tokens are
// compared in constant time over their SHA-256 digests.
type Service struct {
	digests [][32]byte
	hashes  [][]byte
}

func NewService(cfg *config.Config) *Service {
	s := &Service{}
	for _, token := range cfg.API.Tokens {
		if strings.HasPrefix(token, "$2a$") || strings.HasPrefix(token, "$2b$") {
			s.hashes = append(s.hashes, []byte(token))
			continue
		}
		s.digests = append(s.digests, sha256.Sum256([]byte(token)))
	}
	return s
}

// RequireToken rejects requests without a valid Authorization: Bearer token.
func (s *Service) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="Rolodex API"`)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if !s.validate(token) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) validate(token string) bool {
	digest := sha256.Sum256([]byte(token))
	for i := range s.digests {
		if subtle.ConstantTimeCompare(s.digests[i][:], digest[:]) == 1 {
			return true
		}
	}
	for _, hash := range s.hashes {
		if bcrypt.CompareHashAndPassword(hash, []byte(token)) == nil {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
