package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/rs/zerolog"
)

const (
	clerkSessionCookie = "__session"
	clerkProviderX     = "oauth_x"

	insertUser = `INSERT INTO users (id, username) VALUES (?, ?)`
	deleteUser = `DELETE FROM users WHERE id = ?`
)

// ClerkAuthProvider authenticates Clerk sessions and mirrors Clerk users into the users table.
type ClerkAuthProvider struct {
	db db.DB

	cookieExtractor clerkhttp.AuthorizationOption
}

func NewClerkAuthProvider(clerkKey string, database db.DB) *ClerkAuthProvider {
	clerk.SetKey(clerkKey)

	return &ClerkAuthProvider{
		db: database,
		cookieExtractor: clerkhttp.AuthorizationJWTExtractor(func(r *http.Request) string {
			cookie, err := r.Cookie(clerkSessionCookie)
			if err != nil || cookie == nil {
				return ""
			}
			return cookie.Value
		}),
	}
}

func (c *ClerkAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return clerkhttp.WithHeaderAuthorization(c.cookieExtractor)
}

func (c *ClerkAuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		return "", ErrNoUser
	}
	return model.UserID(claims.Subject), nil
}

func (c *ClerkAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(c, w, r)
}

type clerkEvent struct {
	Data struct {
		clerk.User
	} `json:"data"`

	Type string `json:"type"`
}

func (c *ClerkAuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	var payload clerkEvent
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Error decoding event payload")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	usr := payload.Data.User
	l := zerolog.Ctx(r.Context()).With().Str("event", payload.Type).Str("user_id", usr.ID).Logger()

	switch payload.Type {
	case "user.created":
		// Accounts come from X sign-in, which carries the username we keep
		if len(usr.ExternalAccounts) == 0 {
			http.Error(w, "No external accounts found", http.StatusBadRequest)
			return
		}
		if !strings.EqualFold(usr.ExternalAccounts[0].Provider, clerkProviderX) {
			http.Error(w, "Invalid provider", http.StatusBadRequest)
			return
		}

		if _, err := c.db.ExecContext(r.Context(), insertUser, usr.ID, usr.ExternalAccounts[0].Username); err != nil {
			l.Error().Err(err).Msg("Error inserting user")
			http.Error(w, "Error saving user", http.StatusInternalServerError)
			return
		}

		l.Info().Msg("User created")
		w.WriteHeader(http.StatusCreated)

	case "user.updated":
		w.WriteHeader(http.StatusNoContent)

	case "user.deleted":
		if _, err := c.db.ExecContext(r.Context(), deleteUser, usr.ID); err != nil {
			l.Error().Err(err).Msg("Error deleting user")
			http.Error(w, "Error deleting user", http.StatusInternalServerError)
			return
		}

		l.Info().Msg("User deleted")
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Invalid event type", http.StatusBadRequest)
	}
}
