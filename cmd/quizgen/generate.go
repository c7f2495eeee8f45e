package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"quiz-forge/internal/app"
	"quiz-forge/internal/config"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type generateOptions struct {
	file         string
	count        int
	types        []string
	difficulties []string
	answers      int
	feedback     bool
	requester    string
	persist      bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate questions from a text, markdown or HTML file",
		Example: "  quizgen generate --file notes.txt --count 5 --types mc,tf --difficulty easy,hard --answers 4 --feedback\n" +
			"  cat notes.md | quizgen generate --file - --count 3",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			defer logger.Sync()
			return runGenerate(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), *opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Source document, or - for stdin")
	addGenerationFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func addGenerationFlags(cmd *cobra.Command, opts *generateOptions) {
	flags := cmd.Flags()
	flags.IntVarP(&opts.count, "count", "n", 5, "Number of questions")
	flags.StringSliceVar(&opts.types, "types", []string{"mc"}, "Question types: mc, ma, tf")
	flags.StringSliceVar(&opts.difficulties, "difficulty", []string{"medium"}, "Difficulties: easy, medium, hard, expert")
	flags.IntVar(&opts.answers, "answers", 4, "Answer options per multiple choice question (3-6)")
	flags.BoolVar(&opts.feedback, "feedback", false, "Ask the model for per-answer feedback")
	flags.StringVar(&opts.requester, "requester", "", "Requester id for rate limiting")
	flags.BoolVar(&opts.persist, "persist", false, "Store accepted questions in the configured database")
}

func (o generateOptions) request(content string) dto.GenerateQuestionsRequest {
	return dto.GenerateQuestionsRequest{
		Content:          content,
		Count:            o.count,
		Types:            o.types,
		Difficulties:     o.difficulties,
		AnswerCount:      o.answers,
		GenerateFeedback: o.feedback,
	}
}

func runGenerate(ctx context.Context, cfg *config.Config, stdin io.Reader, out io.Writer, opts generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Get()

	data, name, err := readSource(stdin, opts.file)
	if err != nil {
		return err
	}

	components, err := app.Build(ctx, cfg, log, app.Options{UseRedis: opts.requester != "", UseDatabase: opts.persist})
	if err != nil {
		return err
	}
	defer components.Close()

	extracted, err := components.Extractor.Extract(ctx, name, data)
	if err != nil {
		return err
	}

	result, err := components.Service.Generate(ctx, opts.request(extracted.Text).ToDomain(opts.requester))
	if err != nil {
		return err
	}

	persisted := false
	if opts.persist {
		if components.Repository == nil {
			log.Warn("Persistence requested but no database is configured")
		} else if err := components.Repository.SaveQuestions(ctx, result.GenerationID, result.Questions); err != nil {
			return fmt.Errorf("save questions: %w", err)
		} else {
			persisted = true
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto.NewGenerateQuestionsResponse(result, persisted)); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	log.Debug("Generation written", zap.String("generation_id", result.GenerationID))
	return nil
}

// readSource returns the document bytes and the name used to pick the
// extractor format. Stdin is treated as plain text.
func readSource(stdin io.Reader, file string) ([]byte, string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "stdin.txt", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", file, err)
	}
	return data, file, nil
}
