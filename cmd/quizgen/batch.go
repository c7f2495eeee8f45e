package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quiz-forge/internal/app"
	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/logger"
	"quiz-forge/internal/service"

	"github.com/spf13/cobra"
)

type batchOptions struct {
	generateOptions
	dir         string
	concurrency int
}

// batchLine is one JSON line of batch output.
type batchLine struct {
	Document string                         `json:"document"`
	Result   *dto.GenerateQuestionsResponse `json:"result,omitempty"`
	Error    *domain.DomainError            `json:"error,omitempty"`
}

func newBatchCmd() *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:     "batch",
		Short:   "Generate questions for every document in a directory",
		Example: "  quizgen batch --dir notes/ --count 5 --concurrency 2 --persist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			defer logger.Sync()
			return runBatch(cmd.Context(), cfg, cmd.OutOrStdout(), *opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "d", "", "Directory of .txt, .md or .html documents")
	flags.IntVar(&opts.concurrency, "concurrency", service.DefaultBatchConcurrency, "Documents processed at once")
	addGenerationFlags(cmd, &opts.generateOptions)
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

// runBatch writes one JSON line per document and fails only when every
// document failed.
func runBatch(ctx context.Context, cfg *config.Config, out io.Writer, opts batchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := listDocuments(opts.dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found in %s", opts.dir)
	}

	components, err := app.Build(ctx, cfg, logger.Get(), app.Options{UseRedis: opts.requester != "", UseDatabase: opts.persist})
	if err != nil {
		return err
	}
	defer components.Close()

	lines := make([]batchLine, 0, len(files))
	items := make([]domain.BatchItem, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			lines = append(lines, batchLine{Document: name, Error: domain.NewInternalError("failed to read document", err)})
			continue
		}
		extracted, err := components.Extractor.Extract(ctx, name, data)
		if err != nil {
			lines = append(lines, batchLine{Document: name, Error: asDomainError(err)})
			continue
		}
		items = append(items, domain.BatchItem{
			Name:    name,
			Request: opts.request(extracted.Text).ToDomain(opts.requester),
		})
	}

	batch := service.NewBatchService(components.Service, components.Repository, opts.concurrency, logger.Get())
	for _, o := range batch.GenerateAll(ctx, items) {
		line := batchLine{Document: o.Name}
		if o.Err != nil {
			line.Error = asDomainError(o.Err)
		} else {
			resp := dto.NewGenerateQuestionsResponse(o.Result, o.Persisted)
			line.Result = &resp
		}
		lines = append(lines, line)
	}

	enc := json.NewEncoder(out)
	failed := 0
	for _, line := range lines {
		if line.Error != nil {
			failed++
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	if failed == len(lines) {
		return fmt.Errorf("all %d documents failed", failed)
	}
	return nil
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md", ".markdown", ".html", ".htm":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func asDomainError(err error) *domain.DomainError {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return domain.NewError(domain.CodeOf(err), err.Error(), err)
}
