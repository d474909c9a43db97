package editor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/debemdeboas/quill/internal/auth"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/routes"
	"github.com/rs/zerolog"
)

// Handler serves the draft resource. Every operation is scoped to the
// authenticated author; drafts owned by someone else are reported as missing.
type Handler struct {
	repo      Repository
	auth      auth.AuthProvider
	publisher *Publisher
}

// NewHandler returns a draft handler. publisher may be nil, which disables publishing.
func NewHandler(repo Repository, authProvider auth.AuthProvider, publisher *Publisher) *Handler {
	return &Handler{
		repo:      repo,
		auth:      authProvider,
		publisher: publisher,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(routes.APIDraftsCreate, h.ServeCreate)
	mux.HandleFunc(routes.APIDraftsList, h.ServeList)
	mux.HandleFunc(routes.APIDraft, h.ServeGet)
	mux.HandleFunc(routes.APIDraftUpdate, h.ServeUpdate)
	mux.HandleFunc(routes.APIDraftDelete, h.ServeDelete)
	mux.HandleFunc(routes.APIDraftPublish, h.ServePublish)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrDraftNotFound) {
		http.Error(w, config.ErrDraftNotFound, http.StatusNotFound)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("Draft repository error")
	http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
}

// ownedDraft loads the draft named in the path and checks it belongs to owner.
func (h *Handler) ownedDraft(w http.ResponseWriter, r *http.Request, owner model.UserID) (*model.Draft, bool) {
	id := model.DraftID(r.PathValue("id"))
	draft, err := h.repo.GetDraft(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, r, err)
		return nil, false
	}
	if draft.Owner != owner {
		zerolog.Ctx(r.Context()).Warn().Str("draft_id", string(id)).Msg("Draft requested by a different author")
		http.Error(w, config.ErrDraftNotFound, http.StatusNotFound)
		return nil, false
	}
	return draft, true
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	owner, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var in model.DraftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, config.ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	draft, err := h.repo.CreateDraft(r.Context(), owner, in)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}

	w.Header().Set(config.HLocation, routes.APIDrafts+"/"+string(draft.ID))
	writeJSON(w, http.StatusCreated, draft)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	owner, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	drafts, err := h.repo.ListDrafts(r.Context(), owner)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	owner, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	if draft, ok := h.ownedDraft(w, r, owner); ok {
		writeJSON(w, http.StatusOK, draft)
	}
}

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	owner, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	draft, ok := h.ownedDraft(w, r, owner)
	if !ok {
		return
	}

	var patch model.DraftPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, config.ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	if patch.IsEmpty() {
		writeJSON(w, http.StatusOK, draft)
		return
	}

	updated, err := h.repo.UpdateDraft(r.Context(), draft.ID, patch)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	owner, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	draft, ok := h.ownedDraft(w, r, owner)
	if !ok {
		return
	}

	if err := h.repo.DeleteDraft(r.Context(), draft.ID); err != nil {
		h.writeRepoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ServePublish(w http.ResponseWriter, r *http.Request) {
	owner, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	if h.publisher == nil {
		http.Error(w, "Publishing is disabled", http.StatusNotImplemented)
		return
	}

	draft, ok := h.ownedDraft(w, r, owner)
	if !ok {
		return
	}

	post, err := h.publisher.Publish(r.Context(), draft)
	if err != nil {
		h.writeRepoError(w, r, err)
		return
	}

	if err := h.repo.DeleteDraft(r.Context(), draft.ID); err != nil {
		// The post exists now; a leftover draft is harmless
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("draft_id", string(draft.ID)).Msg("Failed to delete published draft")
	}

	w.Header().Set(config.HLocation, "/api/posts/"+string(post.ID))
	writeJSON(w, http.StatusCreated, post)
}
