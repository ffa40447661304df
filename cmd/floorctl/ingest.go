package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"floorchat-backend/knowledge"
	"floorchat-backend/llm"
	"floorchat-backend/repository"
	"floorchat-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestType       string
	ingestChunkRunes int
	ingestSkipUpload bool
)

var ingestExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Index text and markdown documents into the knowledge base",
	Long: `Walks dir for .md, .markdown and .txt files. Each file is split into
chunks, embedded and stored, replacing any document with the same title.
Originals are uploaded to the configured document storage.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := documentPaths(args[0])
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no documents found in %s", args[0])
		}

		ctx, cancel := commandContext()
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		client, err := llm.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return err
		}
		defer client.Close()
		gemini := llm.NewGemini(client,
			llm.WithEmbeddingModel(cfg.EmbeddingModel),
			llm.WithLogger(logger.Named("llm")),
		)

		opts := []knowledge.IngestOption{
			knowledge.IngestWithChunkRunes(ingestChunkRunes),
			knowledge.IngestWithLogger(logger.Named("ingest")),
		}
		if !ingestSkipUpload {
			docs, err := storage.NewStorage(ctx, cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			if az, ok := docs.(*storage.AzureStorage); ok {
				if err := az.EnsureContainer(ctx); err != nil {
					return err
				}
			}
			opts = append(opts, knowledge.IngestWithFileStore(docs))
		}
		ingester := knowledge.NewIngester(gemini, repository.NewKnowledgeRepository(pool), opts...)

		var failed int
		for _, path := range paths {
			content, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("failed to read document", zap.String("path", path), zap.Error(err))
				failed++
				continue
			}

			doc, chunks, err := ingester.Ingest(ctx, knowledge.Document{
				Filename: filepath.Base(path),
				Type:     ingestType,
				Content:  content,
			})
			if err != nil {
				logger.Warn("failed to ingest document", zap.String("path", path), zap.Error(err))
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %q (%s, %d chunks)\n", path, doc.Title, doc.Type, chunks)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(paths))
		}
		return nil
	},
}

// documentPaths lists the ingestible files under dir, in walk order.
func documentPaths(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ingestExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	return paths, nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "Document type for every file: sop, manual, policy or report (default: detected)")
	ingestCmd.Flags().IntVar(&ingestChunkRunes, "chunk-size", knowledge.DefaultChunkRunes, "Target chunk size in characters")
	ingestCmd.Flags().BoolVar(&ingestSkipUpload, "no-upload", false, "Index without uploading originals")
}
