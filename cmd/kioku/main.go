// Package main is the kioku CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kioku/internal/chat"
	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/server"
	"github.com/hyperjump/kioku/internal/watcher"
	"github.com/hyperjump/kioku/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kioku/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence, and a missing default file yields
// the built-in defaults. Returns the config and the path actually loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg, err := config.Default()
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "add":
		runAdd(args)
	case "list":
		runList(args)
	case "show":
		runShow(args)
	case "delete":
		runDelete(args)
	case "clear":
		runClear(args)
	case "retrieve":
		runRetrieve(args)
	case "chat":
		runChat(args)
	case "catalog":
		runCatalog(args)
	case "status":
		runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("kioku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, builds the logger and opens all components.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *Components) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		exitf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		exitf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		exitf("Failed to initialize: %v", err)
	}
	return cfg, logger, components
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (retrieval, indexing, chat turns)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		exitf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		exitf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("model", cfg.Chat.Model),
		zap.String("api_key", utils.MaskSecret(cfg.Chat.APIKey)),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if n, err := components.Indexer.SeedIfEmpty(ctx, cfg.SeedDocuments); err != nil {
		logger.Warn("seeding knowledge base failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("knowledge base seeded", zap.Int("documents", n))
	}

	opts := []server.ServerOption{
		server.WithChat(components.Chat, chat.NewSessionStore(cfg.Chat.SystemPrompt, cfg.Chat.Model, 24*time.Hour)),
	}
	if components.Catalog != nil {
		if _, err := components.Catalog.Reload(ctx); err != nil {
			logger.Warn("initial catalog load failed", zap.Error(err))
		}
		if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
			w, err := components.Catalog.Watch(ctx, cfg.Catalog.Path, watcher.WithLogger(logger))
			if err != nil {
				logger.Warn("catalog watch not started", zap.Error(err))
			} else {
				defer w.Stop()
			}
		}
		opts = append(opts, server.WithCatalog(components.Catalog))
	}

	srv := server.NewServer(components.Indexer, components.Retriever, cfg, logger, opts...)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// reorderArgs moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "kioku retrieve widget --top-k 5"
// would otherwise leave --top-k unparsed.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so multi-word input works with
// or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseDocumentID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	return id, nil
}

func parseMetadata(s string) (map[string]interface{}, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var md map[string]interface{}
	if err := json.Unmarshal([]byte(s), &md); err != nil {
		return nil, fmt.Errorf("metadata must be a JSON object: %w", err)
	}
	return md, nil
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	title := fs.String("title", "", "document title (default: file name with --file)")
	file := fs.String("file", "", "extract content from a file (.txt, .md, .pdf, .docx, .xlsx, ...)")
	metadata := fs.String("metadata", "", `metadata as a JSON object, e.g. '{"type":"faq"}'`)
	_ = fs.Parse(reorderArgs(args))

	content := joinArgs(fs.Args())
	if *file == "" && content == "" {
		fmt.Println("Usage: kioku add [flags] --title <title> <content>")
		fmt.Println("       kioku add [flags] --file <path>")
		os.Exit(1)
	}
	md, err := parseMetadata(*metadata)
	if err != nil {
		exitf("%v", err)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	var id int64
	if *file != "" {
		id, err = components.Indexer.AddFile(ctx, *file, *title)
	} else {
		id, err = components.Indexer.Add(ctx, *title, content, md)
	}
	if err != nil {
		exitf("Add failed: %v", err)
	}
	fmt.Printf("Document added: %d\n", id)
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}
	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	docs, err := components.Indexer.GetAll(context.Background())
	if err != nil {
		exitf("List failed: %v", err)
	}
	if err := cli.WriteDocuments(os.Stdout, docs, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func runShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku show [flags] <document-id>")
		os.Exit(1)
	}
	id, err := parseDocumentID(fs.Arg(0))
	if err != nil {
		exitf("%v", err)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}
	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	doc, err := components.Storage.GetDocument(context.Background(), id)
	if err != nil {
		exitf("Show failed: %v", err)
	}
	if err := cli.WriteDocument(os.Stdout, doc, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku delete [flags] <document-id>")
		os.Exit(1)
	}
	id, err := parseDocumentID(fs.Arg(0))
	if err != nil {
		exitf("%v", err)
	}
	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := components.Indexer.Delete(context.Background(), id); err != nil {
		exitf("Deletion failed: %v", err)
	}
	fmt.Printf("Document deleted: %d\n", id)
}

func runClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(args)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := components.Indexer.Clear(context.Background()); err != nil {
		exitf("Clear failed: %v", err)
	}
	fmt.Println("Knowledge base cleared")
}

func runRetrieve(args []string) {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the store directly)")
	topK := fs.Int("top-k", 0, "maximum number of chunks (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	contextOnly := fs.Bool("context", false, "print only the assembled context block")
	_ = fs.Parse(reorderArgs(args))

	query := joinArgs(fs.Args())
	if query == "" {
		fmt.Println("Usage: kioku retrieve [flags] <query>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}

	ctx := context.Background()
	var resp *models.RetrieveResponse
	if *serverURL != "" {
		resp, err = cli.NewAPIClient(*serverURL).Retrieve(ctx, query, *topK)
		if err != nil {
			exitf("Retrieve failed: %v", err)
		}
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		res, err := components.Retriever.Retrieve(ctx, query, *topK)
		if err != nil {
			exitf("Retrieve failed: %v", err)
		}
		resp = res.Response()
	}

	if *contextOnly {
		cli.WriteContext(os.Stdout, resp)
		return
	}
	if err := cli.WriteRetrieveResults(os.Stdout, resp, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := components.Indexer.SeedIfEmpty(ctx, cfg.SeedDocuments); err != nil {
		logger.Warn("seeding knowledge base failed", zap.Error(err))
	}
	if cfg.Chat.APIKey == "" {
		fmt.Fprintf(os.Stderr, "warning: no API key set (chat.api_key or %s_API_KEY); requests will fail\n", config.EnvPrefix)
	}
	session := chat.NewSession(cfg.Chat.SystemPrompt, components.LLM.Model())
	fmt.Printf("kioku chat (model %s). Type /reset to start over, /exit to quit.\n", session.Model)
	if err := runChatLoop(ctx, os.Stdin, os.Stdout, components.Chat, session); err != nil {
		exitf("Chat failed: %v", err)
	}
}

func runCatalog(args []string) {
	if len(args) < 1 || args[0] != "load" {
		fmt.Println("Usage: kioku catalog load [flags]")
		os.Exit(1)
	}
	fs := flag.NewFlagSet("catalog load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "reload through a running server instead of the store directly")
	_ = fs.Parse(args[1:])

	ctx := context.Background()
	if *serverURL != "" {
		n, err := cli.NewAPIClient(*serverURL).ReloadCatalog(ctx)
		if err != nil {
			exitf("Catalog load failed: %v", err)
		}
		fmt.Printf("Catalog loaded: %d document(s)\n", n)
		return
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	if components.Catalog == nil {
		exitf("No catalog configured (catalog.path or catalog.url)")
	}
	n, err := components.Catalog.Reload(ctx)
	if err != nil {
		exitf("Catalog load failed: %v", err)
	}
	fmt.Printf("Catalog loaded: %d document(s)\n", n)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the store directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		exitf("%v", err)
	}
	ctx := context.Background()
	var status *models.Status
	if *serverURL != "" {
		status, err = cli.NewAPIClient(*serverURL).Status(ctx)
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		status, err = server.BuildStatus(ctx, components.Storage, cfg)
	}
	if err != nil {
		exitf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		exitf("Output failed: %v", err)
	}
}

func printUsage() {
	fmt.Println(`kioku - Retrieval-augmented chat over a small knowledge base

Usage:
  kioku server [flags]              Start the HTTP server
  kioku add [flags] <content>       Add a document (or --file <path>)
  kioku list [flags]                List documents
  kioku show [flags] <id>           Show one document
  kioku delete [flags] <id>         Delete a document
  kioku clear [flags]               Delete every document
  kioku retrieve [flags] <query>    Retrieve relevant context for a query
  kioku chat [flags]                Interactive chat on stdin
  kioku catalog load [flags]        Replace the knowledge base with the product catalog
  kioku status [flags]              Show store status
  kioku version                     Show version
  kioku help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kioku/config.yaml,
                     or ./config.yaml when present)

Server Flags:
  --debug            Enable debug logging

Add Flags:
  --title string     Document title
  --file string      Extract content from a file
  --metadata string  Metadata as a JSON object

Retrieve Flags:
  --top-k int        Maximum number of chunks (default from config: 3)
  --output string    Output format: text or json (default: text)
  --context          Print only the assembled context block
  --server string    Query a running server instead of the store

Status / Catalog Flags:
  --server string    Use a running server instead of the store
  --output string    Output format for status: text or json

Environment:
  KIOKU_API_KEY, KIOKU_MODEL, KIOKU_BASE_URL, KIOKU_DATABASE_PATH,
  KIOKU_STORAGE_BACKEND, KIOKU_CATALOG_URL, KIOKU_CATALOG_API_KEY, KIOKU_DEBUG
  (also read from a .env file in the working directory)

Examples:
  kioku server
  kioku add --title "Widget" "The Widget costs 10 dollars and is blue."
  kioku add --file ./faq.pdf
  kioku retrieve "How much is the Widget?"
  kioku retrieve --top-k 5 --output json widget price
  kioku catalog load --server http://localhost:8080
  kioku status --output json`)
}
