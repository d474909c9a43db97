package render

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/quill/internal/cache"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/mmarkdown/mmark/v2/mast"
)

const draftWithCode = "# Draft A\n\nSome **bold** text.\n\n```go\nfunc main() {}\n```\n"

func TestRenderMarkdown(t *testing.T) {
	testCases := []struct {
		name     string
		renderer string
		markdown string
		contains []string
	}{
		{"mmark emphasis", config.RendererMmark, "Some **bold** text", []string{"<strong>bold</strong>"}},
		{"classic emphasis", config.RendererClassic, "Some **bold** text", []string{"<strong>bold</strong>"}},
		{"mmark code block", config.RendererMmark, draftWithCode, []string{`class="highlight"`, "chroma"}},
		{"classic code block", config.RendererClassic, draftWithCode, []string{`class="highlight"`, "chroma"}},
		{"classic table", config.RendererClassic, "| a | b |\n|---|---|\n| 1 | 2 |\n", []string{"<table>"}},
	}

	t.Cleanup(func() { SetRenderer(config.RendererMmark) })

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			SetRenderer(tc.renderer)
			html, _ := RenderMarkdown([]byte(tc.markdown), "github")
			for _, want := range tc.contains {
				if !bytes.Contains(html, []byte(want)) {
					t.Errorf("Expected %q in %s", want, html)
				}
			}
		})
	}
}

func TestSetRenderer(t *testing.T) {
	t.Cleanup(func() { SetRenderer(config.RendererMmark) })

	SetRenderer(config.RendererClassic)
	if _, extra := RenderMarkdown([]byte("# x"), "github"); extra != nil {
		t.Errorf("Expected no title data from the classic renderer, got %v", extra)
	}

	SetRenderer("no-such-renderer")
	if currentRenderer() != config.RendererMmark {
		t.Errorf("Expected unknown renderer to fall back to mmark, got %q", currentRenderer())
	}
	if _, extra := RenderMarkdown([]byte("# x"), "github"); extra == nil {
		t.Error("Expected title data from the mmark renderer")
	}
}

func TestRenderMarkdownMmarkTitle(t *testing.T) {
	testCases := []struct {
		name     string
		markdown string
		title    string
	}{
		{"No front matter", "Just a draft", "Untitled"},
		{"Front matter", "%%%\ntitle = \"Recovered\"\n%%%\n\nBody", "Recovered"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, info := RenderMarkdownMmark([]byte(tc.markdown), "github")
			if info == nil || info.Title != tc.title {
				t.Errorf("Expected title %q, got %+v", tc.title, info)
			}
		})
	}
}

func TestRenderMarkdownCached(t *testing.T) {
	cache.ClearRenderedMarkdownCache()

	html1, extra1 := RenderMarkdownCached([]byte(draftWithCode), "hash-a", "monokai")
	if len(html1) == 0 {
		t.Fatal("Expected rendered HTML")
	}

	cached, found := cache.GetRenderedMarkdown("hash-a", "monokai")
	if !found || !bytes.Equal(cached.HTML, html1) {
		t.Fatal("Expected the render to be cached under hash and theme")
	}
	if _, ok := cached.Extra.(*mast.TitleData); !ok {
		t.Errorf("Expected cached title data, got %T", cached.Extra)
	}

	// A hit returns the cached bytes even if the markdown differs
	html2, extra2 := RenderMarkdownCached([]byte("changed"), "hash-a", "monokai")
	if !bytes.Equal(html1, html2) || extra1 != extra2 {
		t.Error("Expected a cache hit for the same hash and theme")
	}

	if _, found := cache.GetRenderedMarkdown("hash-a", "github"); found {
		t.Error("Expected a different theme to miss")
	}

	html3, _ := RenderMarkdownCached([]byte("uncached"), "", "github")
	if !bytes.Contains(html3, []byte("uncached")) {
		t.Errorf("Expected empty hash to render directly, got %q", html3)
	}
	if _, found := cache.GetRenderedMarkdown("", "github"); found {
		t.Error("Expected empty hash to skip the cache")
	}
}

func TestRenderMarkdownCachedConcurrent(t *testing.T) {
	cache.ClearRenderedMarkdownCache()

	const workers = 20
	results := make([][]byte, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = RenderMarkdownCached([]byte(draftWithCode), "shared", "github")
		}(i)
	}
	wg.Wait()

	for i, html := range results {
		if !bytes.Equal(html, results[0]) {
			t.Errorf("Worker %d rendered different HTML", i)
		}
	}
}

func TestWarmCache(t *testing.T) {
	cache.ClearRenderedMarkdownCache()
	WarmCache([]byte("warm"), "warm-hash", "github")

	for i := 0; i < 100; i++ {
		if _, found := cache.GetRenderedMarkdown("warm-hash", "github"); found {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Expected WarmCache to populate the cache")
}

func TestHighlightCode(t *testing.T) {
	out := HighlightCode("x := 1\n", "go", "github")
	if !strings.Contains(out, "<pre") {
		t.Errorf("Expected highlighted block, got %q", out)
	}

	// Unknown language and theme fall back instead of failing
	if out := HighlightCode("plain text", "no-such-lang", "no-such-theme"); !strings.Contains(out, "plain text") {
		t.Errorf("Expected fallback output to keep the text, got %q", out)
	}
}

func TestSyntaxCSS(t *testing.T) {
	for _, theme := range []string{"gruvbox", "no-such-theme"} {
		css, err := SyntaxCSS(theme)
		if err != nil {
			t.Fatalf("SyntaxCSS(%s) failed: %v", theme, err)
		}
		if !strings.Contains(css, ".chroma") {
			t.Errorf("Expected chroma classes in stylesheet for %s", theme)
		}
	}
}

func BenchmarkRenderMarkdown(b *testing.B) {
	md := []byte(strings.Repeat(draftWithCode, 20))

	b.Run("Uncached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			RenderMarkdown(md, "github")
		}
	})

	b.Run("Cached", func(b *testing.B) {
		cache.ClearRenderedMarkdownCache()
		for i := 0; i < b.N; i++ {
			RenderMarkdownCached(md, "bench", "github")
		}
	})

	b.Run("Miss", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			RenderMarkdownCached(md, fmt.Sprintf("bench-%d", i), "github")
		}
	})
}
