package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/kioku/internal/catalog"
	"github.com/hyperjump/kioku/internal/chat"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/llm"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"widget price", "--top-k", "5"},
			expected: []string{"--top-k", "5", "widget price"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"--top-k", "5", "widget price"},
			expected: []string{"--top-k", "5", "widget price"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"widget price"},
			expected: []string{"widget price"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"how", "much", "-output", "json"},
			expected: []string{"-output", "json", "how", "much"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"widget"}, "widget"},
		{"multiple words", []string{"how", "much", "is", "the", "widget?"}, "how much is the widget?"},
		{"single quoted phrase", []string{"widget price"}, "widget price"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinArgs(tt.args); got != tt.expected {
				t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestParseDocumentID(t *testing.T) {
	if id, err := parseDocumentID("42"); err != nil || id != 42 {
		t.Errorf("parseDocumentID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "0", "-3"} {
		if _, err := parseDocumentID(bad); err == nil {
			t.Errorf("parseDocumentID(%q): expected error", bad)
		}
	}
}

func TestParseMetadata(t *testing.T) {
	md, err := parseMetadata(`{"type":"faq","priority":2}`)
	if err != nil {
		t.Fatal(err)
	}
	if md["type"] != "faq" || md["priority"] != float64(2) {
		t.Errorf("parseMetadata() = %v", md)
	}
	if md, err := parseMetadata("  "); err != nil || md != nil {
		t.Errorf("blank metadata = %v, %v", md, err)
	}
	if _, err := parseMetadata(`["not", "an", "object"]`); err == nil {
		t.Error("expected error for JSON array")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
retrieval:
  top_k: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.ChunkSize != 500 {
		t.Errorf("unexpected retrieval config: %+v", cfg.Retrieval)
	}
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestNewCatalogSource(t *testing.T) {
	if src := newCatalogSource(&config.CatalogConfig{}, zap.NewNop()); src != nil {
		t.Errorf("expected nil source, got %T", src)
	}
	if src := newCatalogSource(&config.CatalogConfig{Path: "products.json"}, zap.NewNop()); reflect.TypeOf(src) != reflect.TypeOf(&catalog.FileSource{}) {
		t.Errorf("path only: got %T", src)
	}
	src := newCatalogSource(&config.CatalogConfig{Path: "products.json", URL: "https://example.supabase.co/rest/v1/products"}, zap.NewNop())
	fb, ok := src.(*catalog.FallbackSource)
	if !ok || len(fb.Sources) != 2 {
		t.Fatalf("url and path: got %T", src)
	}
	if _, ok := fb.Sources[0].(*catalog.HTTPSource); !ok {
		t.Errorf("first source = %T, want HTTPSource", fb.Sources[0])
	}
}

func TestInitializeComponents(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.Backend = storage.BackendBolt
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "kioku.db")
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "products.json")

	c, err := initializeComponents(cfg, zap.NewNop(), false)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, ok := c.Storage.(*storage.BoltStorage); !ok {
		t.Errorf("storage = %T, want *storage.BoltStorage", c.Storage)
	}
	if c.Catalog == nil {
		t.Error("catalog loader should be configured")
	}
	if c.Retriever.DefaultTopK() != 3 || c.Retriever.MinScore() != 0.1 {
		t.Errorf("retriever topK=%d minScore=%v", c.Retriever.DefaultTopK(), c.Retriever.MinScore())
	}
	n, err := c.Indexer.SeedIfEmpty(context.Background(), cfg.SeedDocuments)
	if err != nil || n != 1 {
		t.Errorf("SeedIfEmpty() = %d, %v", n, err)
	}
}

func TestInitializeComponents_badChunkParams(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.Backend = storage.BackendMemory
	cfg.Retrieval.ChunkOverlap = cfg.Retrieval.ChunkSize
	if _, err := initializeComponents(cfg, zap.NewNop(), false); err == nil {
		t.Error("expected error for overlap >= chunk size")
	}
}

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func TestRunChatLoop(t *testing.T) {
	store := storage.NewMemoryStorage()
	client := &mockLLM{}
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", llm.ErrNoAPIKey).Once()
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("Hello there.", nil).Once()
	svc := chat.NewService(search.NewRetriever(store), client)
	session := chat.NewSession("You are helpful.", "test-model")

	in := strings.NewReader("hi\n\nhello\n/reset\n/exit\nnever sent\n")
	var out bytes.Buffer
	if err := runChatLoop(context.Background(), in, &out, svc, session); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"error: chat API key not set", "Hello there.", "(conversation reset)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if len(session.History()) != 0 {
		t.Errorf("history after /reset = %v", session.History())
	}
	client.AssertNumberOfCalls(t, "Complete", 2)
}

func TestRunChatLoop_EOF(t *testing.T) {
	svc := chat.NewService(search.NewRetriever(storage.NewMemoryStorage()), &mockLLM{})
	var out bytes.Buffer
	if err := runChatLoop(context.Background(), strings.NewReader(""), &out, svc, chat.NewSession("", "m")); err != nil {
		t.Fatal(err)
	}
}
