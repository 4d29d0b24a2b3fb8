package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/seangpt/ragcore/chunking"
	"github.com/seangpt/ragcore/config"
	"github.com/seangpt/ragcore/database"
	"github.com/seangpt/ragcore/embeddings"
	"github.com/seangpt/ragcore/ingestion"
	"github.com/seangpt/ragcore/retrieval"
	"github.com/seangpt/ragcore/store"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "query":
		queryCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func buildParams(cfg config.Config) chunking.Params {
	return chunking.Params{
		BaseSimilarityThreshold: cfg.Chunking.BaseSimilarityThreshold,
		MaxSimilarityThreshold:  cfg.Chunking.MaxSimilarityThreshold,
		MaxChars:                cfg.Chunking.MaxChars,
		MinChars:                cfg.Chunking.MinChars,
		MeanOnClose:             cfg.Chunking.MeanOnClose,
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dir := flags.String("dir", "", "directory of documents to ingest")
	file := flags.String("file", "", "single document file to ingest")
	text := flags.String("text", "", "raw text to ingest (requires --url)")
	sourceURL := flags.String("url", "", "source URL for --text ingestion")
	title := flags.String("title", "", "title for --text ingestion")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	if *dir == "" && *file == "" && *text == "" {
		logger.Fatal("one of --dir, --file or --text is required")
	}
	if *text != "" && *sourceURL == "" {
		logger.Fatal("--text ingestion requires --url")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	svc := ingestion.NewService(store.NewPostgres(pool), embedder, buildParams(cfg), logger)
	logger.Printf("ingesting using %s/%s embeddings", strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	switch {
	case *dir != "":
		if err := svc.IngestDirectory(ctx, *dir); err != nil {
			logger.Fatalf("ingestion failed: %v", err)
		}
	case *file != "":
		if _, err := svc.IngestFile(ctx, *file); err != nil {
			logger.Fatalf("ingestion failed: %v", err)
		}
	default:
		if _, err := svc.Ingest(ctx, *text, *sourceURL, *title); err != nil {
			logger.Fatalf("ingestion failed: %v", err)
		}
	}
}

func queryCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("query", flag.ExitOnError)
	question := flags.String("question", "", "question to retrieve context for")
	topK := flags.Int("k", cfg.Retrieval.TopK, "number of chunks to retrieve")
	minSimilarity := flags.Float64("min-similarity", cfg.Retrieval.MinSimilarity, "similarity floor for results")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse query flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	engine := retrieval.NewEngine(embedder, store.NewPostgres(pool), logger)
	results, err := engine.Retrieve(ctx, *question, retrieval.Options{TopK: *topK, MinSimilarity: *minSimilarity})
	if err != nil {
		logger.Fatalf("retrieval failed: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No relevant content found.")
		return
	}

	for idx, result := range results {
		passage := retrieval.AssembleContext(result)
		fmt.Printf("%d. %s (similarity %.3f)\n", idx+1, passage.Title, passage.Similarity)
		fmt.Printf("   %s\n", passage.Text)
		fmt.Printf("   Source: %s\n", passage.AnchorURL)
		if idx < len(results)-1 {
			fmt.Println()
		}
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete all ingested chunks. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := store.NewPostgres(pool).Clear(ctx); err != nil {
		logger.Fatalf("clear chunks: %v", err)
	}
	logger.Println("all chunks removed")
}

func printUsage() {
	fmt.Println("Usage: ragcore <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ingest   Chunk and store documents (--dir, --file, or --text with --url)")
	fmt.Println("  query    Retrieve the most relevant chunks for a question")
	fmt.Println("  clear    Remove all stored chunks")
}
