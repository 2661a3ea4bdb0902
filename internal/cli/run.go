package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/topiccut/internal/domain/highlights"
	"github.com/forPelevin/topiccut/internal/httpapi"
	"github.com/forPelevin/topiccut/internal/pipeline"
	"github.com/forPelevin/topiccut/internal/ports/adapters/openrouter"
	"github.com/forPelevin/topiccut/internal/types"
	"github.com/forPelevin/topiccut/internal/usecase"
)

const stepTimeout = 15 * time.Minute

func configFromEnv() (pipeline.Config, error) {
	cfg := pipeline.Config{
		Provider:               getenvDefault("MODEL_PROVIDER", pipeline.ProviderBedrock),
		ModelID:                os.Getenv("MODEL_ID"),
		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:      getenvDefault("OPENROUTER_BASE_URL", "https://openrouter.ai"),
		OpenRouterAllowedHosts: openrouter.ParseAllowedHosts(os.Getenv("OPENROUTER_ALLOWED_HOSTS")),
		AWSRegion:              os.Getenv("AWS_REGION"),
		BedrockRegion:          os.Getenv("BEDROCK_REGION"),
		Bucket:                 os.Getenv("BUCKET_NAME"),
		HighlightTable:         os.Getenv("HIGHLIGHT_TABLE_NAME"),
		StoreDir:               os.Getenv("STORE_DIR"),
		LogLevel:               os.Getenv("LOG_LEVEL"),
		LogFormat:              os.Getenv("LOG_FORMAT"),
	}
	if v := os.Getenv("MODEL_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("config: MODEL_MAX_RETRIES must be a non-negative integer, got %q", v)
		}
		b := highlights.DefaultBackoff()
		b.MaxRetries = n
		cfg.Backoff = &b
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (pipeline.Config, *logrus.Logger, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return cfg, nil, err
	}
	log, err := pipeline.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, log, nil
}

func runSelect(cmd *cobra.Command, _ []string) error {
	clip, _ := cmd.Flags().GetString("clip")
	index, _ := cmd.Flags().GetString("index")
	topic, _ := cmd.Flags().GetString("topic")
	topics, _ := cmd.Flags().GetStringSlice("topics")
	topicsFile, _ := cmd.Flags().GetString("topics-file")
	model, _ := cmd.Flags().GetString("model")
	owner, _ := cmd.Flags().GetString("owner")
	strategyFlag, _ := cmd.Flags().GetString("strategy")

	strategy, err := highlights.ParseStrategy(strategyFlag)
	if err != nil {
		return err
	}
	if topicsFile != "" {
		fromFile, err := loadTopicsFile(topicsFile)
		if err != nil {
			return err
		}
		topics = append(topics, fromFile...)
	}
	if strings.TrimSpace(topic) == "" {
		return errors.New("--topic must not be empty")
	}

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), stepTimeout)
	defer cancel()

	res, err := pipeline.Select(ctx, cfg, log, usecase.SelectInput{
		ClipID:   clip,
		Index:    index,
		Topic:    topic,
		Topics:   topics,
		ModelID:  model,
		Owner:    owner,
		Strategy: strategy,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{
		"uuid":       clip,
		"index":      index,
		"text":       res.Draft.Text,
		"VideoTitle": res.Draft.Title,
		"timeframes": res.Draft.Segments,
		"sentences":  res.Sentences,
	})
}

func runConsolidate(cmd *cobra.Command, _ []string) error {
	clip, _ := cmd.Flags().GetString("clip")
	index, _ := cmd.Flags().GetString("index")

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), stepTimeout)
	defer cancel()

	res, err := pipeline.Consolidate(ctx, cfg, log, types.HighlightKey{ClipID: clip, Index: index})
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{
		"uuid":               clip,
		"index":              index,
		"duration":           res.Duration,
		"timeframes":         res.Timeframes,
		"raw_file_path":      res.RawFilePath,
		"output_destination": res.OutputDestination,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uc, err := pipeline.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	app := httpapi.New(uc, log)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(addr) }()
	log.WithField("addr", addr).Info("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	}
}

// loadTopicsFile reads either `topics: [...]` or a bare YAML list.
func loadTopicsFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}
	var doc struct {
		Topics []string `yaml:"topics"`
	}
	if err := yaml.Unmarshal(b, &doc); err == nil && len(doc.Topics) > 0 {
		return cleanTopics(doc.Topics), nil
	}
	var list []string
	if err := yaml.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("parse topics file %s: %w", path, err)
	}
	return cleanTopics(list), nil
}

func cleanTopics(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
