package theme

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/debemdeboas/quill/internal/config"
)

func TestFromRequest(t *testing.T) {
	testCases := []struct {
		name     string
		query    string
		cookie   string
		expected string
	}{
		{"Fallback", "", "", "gruvbox"},
		{"Query", "?theme=monokai", "", "monokai"},
		{"Cookie", "", "github", "github"},
		{"Query wins over cookie", "?theme=monokai", "github", "monokai"},
		{"Unknown query uses cookie", "?theme=nonexistent-theme-12345", "github", "github"},
		{"Unknown cookie uses fallback", "", "nonexistent-theme-12345", "gruvbox"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: config.CookieSyntaxTheme, Value: tc.cookie})
			}
			if got := FromRequest(req, "gruvbox"); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("Expected at least one theme")
	}
	if !slices.IsSorted(names) {
		t.Error("Expected sorted theme names")
	}
	if !slices.Contains(names, "monokai") {
		t.Error("Expected monokai to be available")
	}
}

func TestCSS(t *testing.T) {
	testCases := []string{"monokai", "github", "gruvbox", "nonexistent-theme-12345"}

	for _, name := range testCases {
		t.Run(name, func(t *testing.T) {
			css, err := CSS(name)
			if err != nil {
				t.Fatalf("CSS failed: %v", err)
			}
			if !strings.Contains(css, ".chroma") {
				t.Errorf("Expected chroma classes in CSS for %s", name)
			}

			again, _ := CSS(name)
			if again != css {
				t.Error("Expected memoized CSS to match")
			}
			if _, ok := cssCache.Get(name); !ok {
				t.Error("Expected CSS to be cached")
			}
		})
	}
}
