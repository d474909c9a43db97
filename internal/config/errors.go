package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Auth errors
	ErrCreateProviderFmt      = "Failed to create provider: %v"
	ErrAuthHeaderRequired     = "Authorization header required"
	ErrInvalidSignatureFormat = "Invalid signature format"
	ErrInvalidSignature       = "Invalid signature"
	ErrInternalServerError    = "Internal server error"

	// Request errors
	ErrInvalidJSON   = "Invalid JSON body"
	ErrDraftNotFound = "Draft not found"
	ErrPostNotFound  = "Post not found"

	// Post processing errors
	ErrInitializingPosts = "Error initializing posts"
	ErrReloadingPosts    = "Error reloading posts"

	// Challenge errors
	ErrRefreshChallengeFmt = "Failed to refresh challenge"
)
