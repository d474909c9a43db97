package client

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/debemdeboas/quill/internal/auth"
)

func ParsePrivateKey(data []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	edKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("not an Ed25519 private key")
	}
	return edKey, nil
}

func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return ParsePrivateKey(data)
}

// SignChallenge decodes a base64 challenge and returns the base64 signature.
func SignChallenge(key ed25519.PrivateKey, challengeB64 string) (string, error) {
	challenge, err := base64.StdEncoding.DecodeString(challengeB64)
	if err != nil {
		return "", fmt.Errorf("invalid challenge: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(key, challenge)), nil
}

// Signer holds the signature of the server's current challenge. The
// signature stays valid until the server rotates its challenge.
type Signer struct {
	key ed25519.PrivateKey

	mu        sync.Mutex
	signature string
}

func NewSigner(key ed25519.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Authorization returns the header value, fetching and signing a challenge when none is cached.
func (s *Signer) Authorization(ctx context.Context, c *Client) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signature != "" {
		return s.signature, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/challenge", nil)
	if err != nil {
		return "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching challenge: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error fetching challenge: %s", res.Status)
	}

	var challenge auth.ChallengeResponse
	if err := json.NewDecoder(res.Body).Decode(&challenge); err != nil {
		return "", fmt.Errorf("error decoding challenge: %w", err)
	}

	signature, err := SignChallenge(s.key, challenge.Challenge)
	if err != nil {
		return "", err
	}
	s.signature = signature
	return signature, nil
}

// Invalidate drops the cached signature so the next request signs a fresh challenge.
func (s *Signer) Invalidate() {
	s.mu.Lock()
	s.signature = ""
	s.mu.Unlock()
}
