// Package client talks to the quill server's draft and post APIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/debemdeboas/quill/internal/autosave"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

var clientLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	clientLogger = l
}

var (
	// ErrNotFound is shared with autosave so the editor can tell a deleted
	// draft apart from an outage.
	ErrNotFound     = autosave.ErrNotFound
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is returned for responses the client has no sentinel for.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	signer  *Signer
}

// New returns a client for the server at baseURL. signer may be nil for anonymous access.
func New(baseURL string, signer *Signer, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		signer:  signer,
	}
}

func NewFromConfig(cfg config.ClientConfig) (*Client, error) {
	var signer *Signer
	if cfg.PrivateKeyPath != "" {
		key, err := LoadPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		signer = NewSigner(key)
	}
	return New(cfg.ServerURL, signer, cfg.Timeout), nil
}

// postView is the post body returned by GET /api/posts/{id}.
type postView struct {
	model.Post
	Markdown string `json:"markdown"`
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set(config.HCType, config.CTypeJSON)
	}
	if c.signer != nil {
		sig, err := c.signer.Authorization(ctx, c)
		if err != nil {
			return nil, err
		}
		req.Header.Set(config.HeaderAuthorization, sig)
	}
	return c.http.Do(req)
}

// do sends a JSON request and decodes the JSON response into out. A 401 is
// retried once with a freshly signed challenge.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
	}

	res, err := c.send(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if res.StatusCode == http.StatusUnauthorized && c.signer != nil {
		res.Body.Close()
		clientLogger.Debug().Str("method", method).Str("path", path).Msg("Signature rejected, signing a fresh challenge")
		c.signer.Invalidate()
		if res, err = c.send(ctx, method, path, body); err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case res.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return &StatusError{Code: res.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func draftPath(id model.DraftID) string {
	return "/api/drafts/" + string(id)
}

func (c *Client) CreateDraft(ctx context.Context, in model.DraftInput) (*model.Draft, error) {
	var d model.Draft
	if err := c.do(ctx, http.MethodPost, "/api/drafts", in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) UpdateDraft(ctx context.Context, id model.DraftID, patch model.DraftPatch) (*model.Draft, error) {
	var d model.Draft
	if err := c.do(ctx, http.MethodPatch, draftPath(id), patch, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetDraft(ctx context.Context, id model.DraftID) (*model.Draft, error) {
	var d model.Draft
	if err := c.do(ctx, http.MethodGet, draftPath(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListDrafts(ctx context.Context) ([]model.Draft, error) {
	var drafts []model.Draft
	if err := c.do(ctx, http.MethodGet, "/api/drafts", nil, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (c *Client) DeleteDraft(ctx context.Context, id model.DraftID) error {
	return c.do(ctx, http.MethodDelete, draftPath(id), nil, nil)
}

func (c *Client) PublishDraft(ctx context.Context, id model.DraftID) (*model.Post, error) {
	var p model.Post
	if err := c.do(ctx, http.MethodPost, draftPath(id)+"/publish", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	var v postView
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+string(id), nil, &v); err != nil {
		return nil, err
	}
	v.Post.Markdown = []byte(v.Markdown)
	return &v.Post, nil
}
