package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/pdfindex/internal/app"
	"github.com/bull/pdfindex/internal/config"
	"github.com/bull/pdfindex/internal/indexer"
	"github.com/bull/pdfindex/internal/logger"
	"github.com/bull/pdfindex/internal/storage"
)

type rootOptions struct {
	dir     string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pdfindex",
		Short: "PDF semantic indexing tool",
		Long: `Index a directory of PDF documents into a vector store and query it.

Without a subcommand, pdfindex clears the index, ingests PDF_SOURCE_DIR
and runs the demo query (DEMO_QUERY).

Environment variables (a .env file is loaded when present):
  PDF_SOURCE_DIR      Directory of PDFs (default: ./data)
  EMBEDDING_PROVIDER  ollama, openai or gemini (default: ollama)
  EMBEDDING_MODEL     Embedding model (default: nomic-embed-text)
  VECTOR_STORE        chromem or qdrant (default: chromem)
  CHROMA_PATH         Local store directory (default: ./chroma_db)
  COLLECTION_NAME     Collection name (default: pdf_embeddings)
  CHUNK_SIZE          Words per chunk (default: 300)
  CHUNK_OVERLAP       Words shared between chunks (default: 50)`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefault(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "source directory (overrides PDF_SOURCE_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newIngestCmd(opts),
		newQueryCmd(opts),
		newClearCmd(opts),
		newStatusCmd(opts),
	)
	return rootCmd
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var clearFirst bool
	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index every PDF in a directory",
		Long: `Extracts, chunks and embeds every PDF in the directory and upserts the
chunks into the vector store. Existing records are kept unless --clear is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			dir := sourceDir(a.Config, opts)
			if len(args) == 1 {
				dir = args[0]
			}

			out := cmd.OutOrStdout()
			if clearFirst {
				if err := clearIndex(cmd.Context(), out, a); err != nil {
					return err
				}
			}
			_, err = ingest(cmd.Context(), out, a, dir)
			return err
		},
	}
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "clear the index before ingesting")
	return cmd
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Find the chunks most similar to a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			results, err := a.Search.Query(cmd.Context(), text, topK)
			if err != nil {
				return fmt.Errorf("Query failed: %w", err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), text, results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (default QUERY_TOP_K)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every record from the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()
			return clearIndex(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the vector store backend and record count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:    %s\n", status.Backend)
			fmt.Fprintf(out, "Collection: %s\n", status.Collection)
			fmt.Fprintf(out, "Chunks:     %d\n", status.TotalChunks)
			return nil
		},
	}
}

// setup loads configuration and builds the application components.
func setup(ctx context.Context, opts *rootOptions) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}

	return app.New(ctx, cfg, log)
}

func sourceDir(cfg *config.Config, opts *rootOptions) string {
	if opts.dir != "" {
		return opts.dir
	}
	return cfg.SourceDir
}

// runDefault clears the index, rebuilds it from the source directory and
// runs the demo query.
func runDefault(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	start := time.Now()
	out := cmd.OutOrStdout()

	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "Using %s store (collection %s)\n", a.Store.Backend(), a.Store.CollectionName())
	if err := clearIndex(ctx, out, a); err != nil {
		return err
	}

	if _, err := ingest(ctx, out, a, sourceDir(a.Config, opts)); err != nil {
		return err
	}

	fmt.Fprintln(out)
	results, err := a.Search.Query(ctx, a.Config.DemoQuery, 0)
	if err != nil {
		return fmt.Errorf("Query failed: %w", err)
	}
	printResults(out, a.Config.DemoQuery, results)

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func clearIndex(ctx context.Context, out io.Writer, a *app.App) error {
	fmt.Fprintln(out, "Clearing existing collection...")
	if err := a.Pipeline.ClearIndex(ctx); err != nil {
		return fmt.Errorf("Failed to clear collection: %w", err)
	}
	fmt.Fprintln(out, "Collection cleared")
	return nil
}

func ingest(ctx context.Context, out io.Writer, a *app.App, dir string) (*indexer.IndexResult, error) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Indexing documents from %s...\n", dir)

	result, err := a.Pipeline.IngestDir(ctx, dir)
	if result != nil {
		printSummary(out, result)
	}
	if err != nil {
		return result, fmt.Errorf("Indexing failed: %w", err)
	}
	return result, nil
}

func printSummary(out io.Writer, result *indexer.IndexResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Ingestion complete!")
	fmt.Fprintf(out, "  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Fprintf(out, "  Chunks: %d\n", result.TotalChunks)
	fmt.Fprintf(out, "  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.FailedDocs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Fprintf(out, "  - %s (%s): %s\n", failed.Path, failed.Stage, failed.Reason)
		}
	}
}

func printResults(out io.Writer, query string, results []storage.Result) {
	fmt.Fprintf(out, "Query: %s\n", query)
	if len(results) == 0 {
		fmt.Fprintln(out, "No results. Is the index empty?")
		return
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s (%s, page %s, score %.4f)\n", i+1, r.ID, r.File(), r.Page(), r.Similarity)
		fmt.Fprintf(out, "   %s\n", r.Chunk())
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
