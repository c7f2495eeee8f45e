package main

import (
	"quiz-forge/internal/config"
	"quiz-forge/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "quizgen",
	Short:         "Generate quiz questions from study material",
	Long:          "quizgen runs the question generation pipeline once and prints the result as JSON.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("provider", "", "Model provider: openai, ollama or mock (overrides llm.provider)")
	rootCmd.PersistentFlags().String("model", "", "Model id (overrides llm.model)")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newBatchCmd())
}

// loadConfig reads the shared configuration and applies persistent flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.LLM.Provider = p
	}
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.LLM.Model = m
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return nil, err
	}
	return cfg, nil
}
