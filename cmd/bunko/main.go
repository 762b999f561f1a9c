// Package main is the bunko CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/catalog"
	"github.com/hyperjump/bunko/internal/chunker"
	"github.com/hyperjump/bunko/internal/config"
	"github.com/hyperjump/bunko/internal/extract"
	"github.com/hyperjump/bunko/internal/fileid"
	"github.com/hyperjump/bunko/internal/index"
	"github.com/hyperjump/bunko/internal/ingest"
	"github.com/hyperjump/bunko/internal/models"
	"github.com/hyperjump/bunko/internal/resilience"
	"github.com/hyperjump/bunko/internal/retrieval"
	"github.com/hyperjump/bunko/internal/server"
	"github.com/hyperjump/bunko/internal/watcher"
	"github.com/hyperjump/bunko/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bunko/config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("bunko version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: bunko <command> [flags]

Commands:
  server   Run the HTTP API server
  ingest   Upload and ingest documents (files as arguments)
  query    Search ingested documents
  delete   Delete a document by id
  status   Show collection statistics
  version  Show version
`)
}

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence (for development).
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				return config.Load(fallback)
			}
		}
	}
	return config.Load(path)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rawIndex, err := index.New(index.Options{
		Type:       cfg.Index.Type,
		Host:       cfg.Index.Host,
		Port:       cfg.Index.Port,
		Collection: cfg.Index.Collection,
	})
	if err != nil {
		logger.Fatal("Failed to create vector index", zap.Error(err))
	}
	idx := resilience.Wrap(rawIndex, cfg.Index.PersistDir, resilience.WithLogger(logger))
	defer idx.Close()

	cat, err := catalog.NewCatalog(cfg.Catalog.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer cat.Close()

	splitter, err := chunker.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap, nil)
	if err != nil {
		logger.Fatal("Invalid chunking config", zap.Error(err))
	}

	coordinator := ingest.NewCoordinator(idx, splitter, ingest.WithRecorder(cat), ingest.WithLogger(logger))
	aggregator := retrieval.NewAggregator(idx, retrieval.WithLogger(logger))
	extractor := extract.NewExtractor()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchSvc := newWatchService(cfg, extractor, coordinator, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(coordinator, aggregator, extractor, cat, idx, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newWatchService wires the directory watcher to extraction and ingestion.
// Watched files get a stable path-derived document id so rewrites replace
// the previous chunks.
func newWatchService(cfg *config.Config, extractor *extract.Extractor, coordinator *ingest.Coordinator, logger *zap.Logger) *watcher.Watcher {
	opts := []watcher.Option{}
	if cfg.Debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	onIngest := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		res, err := extractor.Extract(absPath)
		if err != nil {
			logger.Warn("watch extract failed", zap.String("path", absPath), zap.Error(err))
			return
		}
		docID := fileid.FileDocID(absPath)
		ctx := context.Background()
		if _, err := coordinator.DeleteDocument(ctx, docID); err != nil {
			logger.Warn("watch replace failed", zap.String("path", absPath), zap.Error(err))
		}
		_, err = coordinator.IngestDocument(ctx, &models.IngestInput{
			ID:       docID,
			Text:     res.Text,
			Metadata: res.Metadata,
			BaseMetadata: map[string]interface{}{
				"filename":  filepath.Base(absPath),
				"file_type": strings.TrimPrefix(strings.ToLower(filepath.Ext(absPath)), "."),
			},
		})
		if err != nil {
			logger.Warn("watch ingest failed", zap.String("path", absPath), zap.Error(err))
		}
	}
	onRemove := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, err := coordinator.DeleteDocument(context.Background(), fileid.FileDocID(absPath)); err != nil {
			logger.Warn("watch delete failed", zap.String("path", absPath), zap.Error(err))
		}
	}
	return watcher.NewWatcher(cfg.Watch.Directories, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), onIngest, onRemove, opts...)
}

// apiBaseURL returns the server base URL from config, overridable with -addr.
func apiBaseURL(fs *flag.FlagSet, args []string) (string, []string) {
	addr := fs.String("addr", "", "server address (host:port), defaults to config")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(args)
	if *addr != "" {
		return "http://" + *addr, fs.Args()
	}
	if cfg, err := loadConfig(*configPath); err == nil {
		return fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port), fs.Args()
	}
	return "http://localhost:8001", fs.Args()
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	base, files := apiBaseURL(fs, os.Args[2:])
	if len(files) == 0 {
		fmt.Println("Usage: bunko ingest [flags] <file>...")
		os.Exit(1)
	}
	for _, path := range files {
		if err := uploadFile(base, path); err != nil {
			fmt.Printf("%s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func uploadFile(base, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	resp, err := http.Post(base+"/api/v1/documents", mw.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out struct {
		DocumentID string `json:"document_id"`
	}
	_ = json.Unmarshal(raw, &out)
	fmt.Printf("Ingested %s (document_id: %s)\n", path, out.DocumentID)
	return nil
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	topK := fs.Int("k", 3, "number of results")
	grouped := fs.Bool("group", true, "group results by document")
	base, args := apiBaseURL(fs, os.Args[2:])
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		fmt.Println("Usage: bunko query [flags] <query text>")
		os.Exit(1)
	}

	payload, _ := json.Marshal(models.QueryRequest{Query: query, TopK: *topK, GroupByDocument: *grouped})
	resp, err := http.Post(base+"/api/v1/query", "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	var out models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Printf("Bad response: %v\n", err)
		os.Exit(1)
	}

	if *grouped {
		for i, g := range out.Groups {
			name := g.DocumentID
			if fn, ok := g.Metadata["filename"].(string); ok {
				name = fn
			}
			fmt.Printf("%d. %s (similarity %.2f, %d matching chunks)\n", i+1, name, 1-g.BestDistance, len(g.Candidates))
			for _, c := range g.Candidates {
				fmt.Printf("   - [%.2f] %s\n", c.Similarity(), snippet(c.Text, 120))
			}
		}
		return
	}
	for i, c := range out.Results {
		fmt.Printf("%d. [%.2f] %s\n", i+1, c.Similarity(), snippet(c.Text, 160))
	}
}

func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	base, args := apiBaseURL(fs, os.Args[2:])
	if len(args) != 1 {
		fmt.Println("Usage: bunko delete [flags] <document-id>")
		os.Exit(1)
	}
	req, err := http.NewRequest(http.MethodDelete, base+"/api/v1/documents/"+args[0], nil)
	if err != nil {
		fmt.Printf("Delete failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Delete failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	var out struct {
		ChunksRemoved int `json:"chunks_removed"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	fmt.Printf("Deleted %s (%d chunks removed)\n", args[0], out.ChunksRemoved)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	base, _ := apiBaseURL(fs, os.Args[2:])
	resp, err := http.Get(base + "/api/v1/stats")
	if err != nil {
		fmt.Printf("Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(raw)))
}
