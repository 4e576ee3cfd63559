package render

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/diogo/readalong/internal/config"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Width != 80 {
		t.Errorf("expected Width=80, got %d", opts.Width)
	}
	if opts.Style != "dark" {
		t.Errorf("expected Style='dark', got %s", opts.Style)
	}
	if !opts.EnableEmoji || !opts.PreserveNewLines || !opts.TableWrap {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Setenv(StyleEnv, "")

	md := config.MarkdownConfig{Style: "light", EnableEmoji: false, TableWrap: true}
	opts := OptionsFromConfig(md, 120)

	if opts.Style != "light" || opts.Width != 120 || opts.EnableEmoji {
		t.Errorf("OptionsFromConfig() = %+v", opts)
	}

	t.Setenv(StyleEnv, "ascii")
	if got := OptionsFromConfig(md, 0); got.Style != "ascii" || got.Width != 80 {
		t.Errorf("env override: %+v", got)
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		style   string
		want    []string
	}{
		{"numbered questions", "1. Who helped the hen?\n2. Why was she tired?", StylePlain, []string{"Who helped the hen?", "Why was she tired?"}},
		{"bold label", "**Vocabulary**: what does *brave* mean?", StylePlain, []string{"Vocabulary", "brave"}},
		{"storybook style", "# Questions\n1. One", StyleStorybook, []string{"Questions", "One"}},
		{"dark style", "hello", StyleDark, []string{"hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Markdown(tt.content, DefaultOptions().WithStyle(tt.style))
			if err != nil {
				t.Fatalf("Markdown() returned error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
		})
	}
}

func TestMarkdown_StyleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.json")
	if err := os.WriteFile(path, []byte(`{"document":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := Markdown("from file", DefaultOptions().WithStyle(path))
	if err != nil {
		t.Fatalf("Markdown() returned error: %v", err)
	}
	if !strings.Contains(out, "from file") {
		t.Errorf("output %q", out)
	}
}

func TestMarkdownOrPlain_FallsBack(t *testing.T) {
	opts := DefaultOptions().WithStyle(filepath.Join(t.TempDir(), "missing.json"))
	if got := MarkdownOrPlain("raw text", opts); got != "raw text" {
		t.Errorf("MarkdownOrPlain() = %q, want raw text", got)
	}
}

func TestRendererPool(t *testing.T) {
	ClearCache()
	defer ClearCache()

	opts := DefaultOptions().WithStyle(StylePlain)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Markdown("concurrent", opts); err != nil {
				t.Errorf("Markdown() returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1", CacheSize())
	}

	_, _ = Markdown("other width", opts.WithWidth(40))
	if CacheSize() != 2 {
		t.Errorf("CacheSize() = %d, want 2", CacheSize())
	}
}

func TestIsBuiltinStyle(t *testing.T) {
	for _, s := range AvailableStyles() {
		if !IsBuiltinStyle(s.Name) {
			t.Errorf("IsBuiltinStyle(%q) = false", s.Name)
		}
	}
	if IsBuiltinStyle("/tmp/custom.json") {
		t.Error("paths are not built-in styles")
	}
}
