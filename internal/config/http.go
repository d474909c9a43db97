package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"
	HLocation     = "Location"

	CTypeHTML = "text/html"
	CTypeJSON = "application/json"
	CTypeText = "text/plain"
	CTypeSSE  = "text/event-stream"
	CTypeCSS  = "text/css"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	HeaderAuthorization = "Authorization"
	CookieAuthToken     = "auth_token"
	CookieSyntaxTheme   = "syntax_theme"
)
