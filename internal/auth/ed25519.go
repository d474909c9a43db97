package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

const challengeSize = 32

// Ed25519AuthProvider authenticates a single author who proves ownership of
// the configured key by signing the current server challenge.
type Ed25519AuthProvider struct {
	publicKey  ed25519.PublicKey
	headerName string
	cookieName string
	userID     model.UserID

	mu        sync.RWMutex
	challenge []byte
}

func ParsePublicKey(publicKeyPEM string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	publicKey, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("key is not an Ed25519 public key")
	}
	return publicKey, nil
}

func NewEd25519AuthProvider(publicKeyPEM string, headerName string, userID model.UserID) (*Ed25519AuthProvider, error) {
	publicKey, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	if headerName == "" {
		headerName = config.HeaderAuthorization
	}

	p := &Ed25519AuthProvider{
		publicKey:  publicKey,
		headerName: headerName,
		cookieName: config.CookieAuthToken,
		userID:     userID,
	}
	if err := p.RefreshChallenge(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Ed25519AuthProvider) verify(signature []byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ed25519.Verify(p.publicKey, p.challenge, signature)
}

func (p *Ed25519AuthProvider) signatureFromRequest(r *http.Request) []byte {
	l := zerolog.Ctx(r.Context())

	// A header, when present, is authoritative
	if authHeader := r.Header.Get(p.headerName); authHeader != "" {
		signature, err := base64.StdEncoding.DecodeString(strings.TrimSpace(authHeader))
		if err != nil {
			l.Debug().Err(err).Msg("Failed to decode signature from header")
			return nil
		}
		return signature
	}

	if cookie, err := r.Cookie(p.cookieName); err == nil && cookie.Value != "" {
		signature, err := base64.StdEncoding.DecodeString(cookie.Value)
		if err == nil {
			return signature
		}
		l.Debug().Err(err).Msg("Failed to decode signature from cookie")
	}

	return nil
}

// WithHeaderAuthorization puts the user ID into the request context when the
// request carries a valid signature. Requests without one pass through untouched.
func (p *Ed25519AuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if signature := p.signatureFromRequest(r); len(signature) > 0 && p.verify(signature) {
				next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), p.userID)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p *Ed25519AuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return "", ErrNoUser
	}
	return userID, nil
}

func (p *Ed25519AuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(p, w, r)
}

// HandleWebhookUser is a no-op; the single author is configured statically.
func (p *Ed25519AuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (p *Ed25519AuthProvider) GetChallenge() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]byte, len(p.challenge))
	copy(out, p.challenge)
	return out
}

// RefreshChallenge replaces the challenge, invalidating every issued signature.
func (p *Ed25519AuthProvider) RefreshChallenge() error {
	challenge := make([]byte, challengeSize)
	if _, err := rand.Read(challenge); err != nil {
		authLogger.Error().Err(err).Msg("Failed to generate challenge")
		return fmt.Errorf("failed to generate challenge: %w", err)
	}

	p.mu.Lock()
	p.challenge = challenge
	p.mu.Unlock()
	return nil
}
