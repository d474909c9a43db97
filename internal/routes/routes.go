// Package routes defines HTTP route patterns for the server.
package routes

const (
	RobotsPath = "/robots.txt"
	SSEPath    = "/sse"

	// Partials
	PartialsPost    = "GET /partials/post"
	PartialsPreview = "POST /partials/preview"
	SyntaxCSS       = "GET /syntax/{theme}"
	SyntaxThemes    = "GET /syntax"

	// Posts
	APIPosts      = "GET /api/posts"
	APIPost       = "GET /api/posts/{id}"
	APIPostUpdate = "PUT /api/posts/{id}"

	// Drafts
	APIDrafts       = "/api/drafts"
	APIDraftsList   = "GET /api/drafts"
	APIDraftsCreate = "POST /api/drafts"
	APIDraft        = "GET /api/drafts/{id}"
	APIDraftUpdate  = "PATCH /api/drafts/{id}"
	APIDraftDelete  = "DELETE /api/drafts/{id}"
	APIDraftPublish = "POST /api/drafts/{id}/publish"

	// Auth
	AuthChallenge = "/auth/challenge"
	AuthVerify    = "POST /auth/verify"
	WebhookUser   = "POST /webhook/user"
)
