package cache

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, string]()

	t.Run("Set and Get", func(t *testing.T) {
		cache.Set("test-key", "test-value")

		got, exists := cache.Get("test-key")
		if !exists {
			t.Error("Expected key to exist")
		}
		if got != "test-value" {
			t.Errorf("Expected %q, got %q", "test-value", got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		if _, exists := cache.Get("non-existent"); exists {
			t.Error("Expected key to not exist")
		}
	})

	t.Run("Delete reports presence", func(t *testing.T) {
		cache.Set("gone", "soon")
		if !cache.Delete("gone") {
			t.Error("Expected Delete to report existing key")
		}
		if cache.Delete("gone") {
			t.Error("Expected Delete to report missing key")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		cache.Set("a", "1")
		cache.Clear()
		if cache.Len() != 0 {
			t.Errorf("Expected empty cache, got %d items", cache.Len())
		}
	})
}

func TestCache_SetToAndValues(t *testing.T) {
	cache := NewCache[int, string]()
	cache.Set(99, "old")

	cache.SetTo(map[int]string{1: "one", 2: "two"})

	if _, ok := cache.Get(99); ok {
		t.Error("Expected SetTo to replace previous items")
	}

	values := cache.Values()
	sort.Strings(values)
	if len(values) != 2 || values[0] != "one" || values[1] != "two" {
		t.Errorf("Unexpected values %v", values)
	}
}

func TestCache_Update(t *testing.T) {
	cache := NewCache[string, int]()

	t.Run("Missing key not kept", func(t *testing.T) {
		_, kept := cache.Update("missing", func(current int, ok bool) (int, bool) {
			if ok {
				t.Error("Expected ok=false for missing key")
			}
			return 0, false
		})
		if kept {
			t.Error("Expected update to be discarded")
		}
		if cache.Len() != 0 {
			t.Error("Expected cache to stay empty")
		}
	})

	t.Run("Existing key incremented", func(t *testing.T) {
		cache.Set("n", 1)
		next, kept := cache.Update("n", func(current int, ok bool) (int, bool) {
			return current + 1, ok
		})
		if !kept || next != 2 {
			t.Errorf("Expected 2 kept, got %d %v", next, kept)
		}
	})

	t.Run("Concurrent updates are serialized", func(t *testing.T) {
		cache.Set("counter", 0)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cache.Update("counter", func(current int, ok bool) (int, bool) {
					return current + 1, true
				})
			}()
		}
		wg.Wait()

		if got, _ := cache.Get("counter"); got != 50 {
			t.Errorf("Expected 50, got %d", got)
		}
	})
}

func TestCache_Concurrency(t *testing.T) {
	cache := NewCache[string, int]()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			cache.Set(key, i)
			cache.Get(key)
			cache.Values()
		}(i)
	}
	wg.Wait()

	if cache.Len() != 20 {
		t.Errorf("Expected 20 items, got %d", cache.Len())
	}
}

func TestRenderedMarkdownCache(t *testing.T) {
	ClearRenderedMarkdownCache()
	defer ClearRenderedMarkdownCache()

	html := []byte("<h1>Hello</h1>")
	SetRenderedMarkdown("hash", "gruvbox", html, "extra")

	got, ok := GetRenderedMarkdown("hash", "gruvbox")
	if !ok {
		t.Fatal("Expected cached content")
	}
	if !bytes.Equal(got.HTML, html) || got.Extra != "extra" {
		t.Errorf("Unexpected cached content %+v", got)
	}

	if _, ok := GetRenderedMarkdown("hash", "monokai"); ok {
		t.Error("Expected miss for different syntax theme")
	}
}
