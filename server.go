package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/auth"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/render"
	"github.com/debemdeboas/quill/internal/repository"
	"github.com/debemdeboas/quill/internal/repository/editor"
	"github.com/debemdeboas/quill/internal/routes"
	"github.com/debemdeboas/quill/internal/sse"
	"github.com/debemdeboas/quill/internal/theme"
	"github.com/debemdeboas/quill/internal/util"
)

type server struct {
	cfg *config.Config
	log zerolog.Logger

	posts   repository.PostRepository
	clients *sse.SSEClients

	// auth is nil when authentication is disabled or misconfigured. The
	// draft API and post updates are only served with a provider.
	auth    auth.AuthProvider
	ed25519 *auth.Ed25519AuthProvider
	drafts  *editor.Handler
}

// postView is the JSON form of a post. Markdown is included so editors can
// start a draft from it.
type postView struct {
	*model.Post
	Markdown string `json:"markdown"`
}

type postUpdate struct {
	Markdown *string     `json:"markdown"`
	Tags     *model.Tags `json:"tags"`
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(routes.RobotsPath, serveRobots)
	mux.Handle(routes.SSEPath, s.clients)
	mux.HandleFunc(routes.PartialsPost, s.servePartialPost)
	mux.HandleFunc(routes.PartialsPreview, s.servePreview)
	mux.HandleFunc(routes.SyntaxCSS, serveSyntaxCSS)
	mux.HandleFunc(routes.SyntaxThemes, serveSyntaxThemes)
	mux.HandleFunc(routes.APIPosts, s.servePostList)
	mux.HandleFunc(routes.APIPost, s.servePost)

	var handler http.Handler = mux
	if s.auth != nil {
		mux.HandleFunc(routes.APIPostUpdate, s.serveUpdatePost)
		mux.HandleFunc(routes.WebhookUser, s.auth.HandleWebhookUser)
		if s.ed25519 != nil {
			auth.RegisterEd25519AuthRoutes(mux, s.ed25519)
		}
		if s.drafts != nil {
			s.drafts.Register(mux)
		}
		handler = s.auth.WithHeaderAuthorization()(handler)
	}

	return s.withRequestLogger(cacheIt(secureHeaders(handler)))
}

func (s *server) handleReloadPost(postID model.PostID) {
	go s.clients.Broadcast(postID, sse.EventReload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func serveRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, config.CTypeText)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User-agent: *\nDisallow:"))
}

func (s *server) servePostList(w http.ResponseWriter, r *http.Request) {
	posts := s.posts.GetPostList()
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *server) readPost(w http.ResponseWriter, r *http.Request, id string) (*model.Post, bool) {
	post, err := s.posts.ReadPost(id)
	if err != nil {
		if !errors.Is(err, repository.ErrPostNotFound) {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("post_id", id).Msg("Failed to read post")
		}
		http.Error(w, config.ErrPostNotFound, http.StatusNotFound)
		return nil, false
	}
	return post, true
}

func (s *server) servePost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.readPost(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	view := *post
	html, _ := render.RenderMarkdownCached(post.Markdown, post.MDContentHash, s.syntaxTheme(r))
	view.Content = template.HTML(html)

	w.Header().Set(config.HETag, post.MDContentHash)
	writeJSON(w, http.StatusOK, postView{Post: &view, Markdown: string(post.Markdown)})
}

// serveUpdatePost replaces a post's markdown. Only the owner may do so.
func (s *server) serveUpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	post, ok := s.readPost(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	if post.Owner != userID {
		http.Error(w, config.ErrPostNotFound, http.StatusNotFound)
		return
	}

	var in postUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, config.ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	updated := *post
	if in.Markdown != nil {
		updated.Markdown = []byte(*in.Markdown)
		updated.Title = util.TitleFromMarkdown(updated.Markdown, post.Title)
	}
	if in.Tags != nil {
		updated.Tags = in.Tags.Clone()
	}

	if err := s.posts.SetPostContent(&updated); err != nil {
		if errors.Is(err, repository.ErrReadOnly) {
			http.Error(w, err.Error(), http.StatusMethodNotAllowed)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("post_id", string(post.ID)).Msg("Failed to update post")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	s.handleReloadPost(post.ID)
	writeJSON(w, http.StatusOK, postView{Post: &updated, Markdown: string(updated.Markdown)})
}

func (s *server) servePartialPost(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("post")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	post, ok := s.readPost(w, r, id)
	if !ok {
		return
	}

	html, _ := render.RenderMarkdownCached(post.Markdown, post.MDContentHash, s.syntaxTheme(r))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<title>%s</title>\n%s", template.HTMLEscapeString(post.GetTitle()), html)
}

func (s *server) servePreview(w http.ResponseWriter, r *http.Request) {
	content := r.FormValue("content")
	if content == "" {
		content = config.EmptyPreviewText
	}

	html, _ := render.RenderMarkdown([]byte(content), s.syntaxTheme(r))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func serveSyntaxCSS(w http.ResponseWriter, r *http.Request) {
	css, err := theme.CSS(r.PathValue("theme"))
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to generate syntax CSS")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHashString(css))
	w.Header().Set(config.HCacheControl, "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(css))
}

func serveSyntaxThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, theme.Names())
}

func (s *server) syntaxTheme(r *http.Request) string {
	return theme.FromRequest(r, s.cfg.Content.SyntaxTheme)
}

// withRequestLogger attaches a request scoped logger, read back with zerolog.Ctx.
func (s *server) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := s.log.With().
			Str("request_id", uuid.NewString()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))

		l.Debug().Dur("elapsed", time.Since(start)).Msg("Request served")
	})
}

func cacheIt(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie, Authorization")
		h.ServeHTTP(w, r)
	})
}

func secureHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routes.RobotsPath {
			w.Header().Set("X-Frame-Options", "deny")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
		}
		h.ServeHTTP(w, r)
	})
}
