// Package theme resolves the syntax highlighting theme for a request and
// serves the matching stylesheet.
package theme

import (
	"net/http"
	"slices"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/render"
)

// FromRequest picks the theme from the query, then the cookie, then fallback.
// Unknown names fall through to the next source.
func FromRequest(r *http.Request, fallback string) string {
	if name := r.URL.Query().Get("theme"); Valid(name) {
		return name
	}
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && Valid(cookie.Value) {
		return cookie.Value
	}
	return fallback
}

func Valid(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

func Names() []string {
	names := styles.Names()
	slices.Sort(names)
	return names
}

var cssCache = cache.NewCache[string, string]()

// CSS returns the stylesheet for name, memoized per theme.
func CSS(name string) (string, error) {
	if css, ok := cssCache.Get(name); ok {
		return css, nil
	}

	css, err := render.SyntaxCSS(name)
	if err != nil {
		return "", err
	}

	style := styles.Get(name)
	if bg := style.Get(chroma.Background); !bg.Colour.IsSet() && luminance(bg.Background) > 0.5 {
		// Light backgrounds without a text colour need a dark default
		css = ".chroma { color: #181818; }\n" + css
	}

	cssCache.Set(name, css)
	return css, nil
}

func luminance(c chroma.Colour) float64 {
	return (0.299*float64(c.Red()) + 0.587*float64(c.Green()) + 0.114*float64(c.Blue())) / 255
}
