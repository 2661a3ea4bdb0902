package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topiccut/internal/domain/highlights"
	"github.com/forPelevin/topiccut/internal/ports"
	"github.com/forPelevin/topiccut/internal/ports/adapters/bedrock"
	"github.com/forPelevin/topiccut/internal/ports/adapters/dynamostore"
	"github.com/forPelevin/topiccut/internal/ports/adapters/localfs"
	"github.com/forPelevin/topiccut/internal/ports/adapters/openrouter"
	"github.com/forPelevin/topiccut/internal/ports/adapters/s3transcripts"
	"github.com/forPelevin/topiccut/internal/types"
	"github.com/forPelevin/topiccut/internal/usecase"
)

const (
	ProviderBedrock    = "bedrock"
	ProviderOpenRouter = "openrouter"
)

type Config struct {
	Provider string `validate:"required,oneof=bedrock openrouter"`
	// Bedrock has no default model; OpenRouter falls back to its own.
	ModelID string `validate:"required_if=Provider bedrock"`

	OpenRouterAPIKey       string `validate:"required_if=Provider openrouter"`
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string

	AWSRegion     string
	BedrockRegion string

	// Bucket holds transcripts and media; HighlightTable the records. Both are
	// required unless StoreDir selects the local store.
	Bucket         string `validate:"required_without=StoreDir"`
	HighlightTable string `validate:"required_without=StoreDir"`
	StoreDir       string

	LogLevel  string `validate:"omitempty,oneof=trace debug info warn warning error"`
	LogFormat string `validate:"omitempty,oneof=json text"`

	// Backoff overrides the model retry policy; nil keeps the default.
	Backoff *highlights.Backoff
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.New(formatValidationErrors(verrs))
		}
		return err
	}
	if c.Provider == ProviderOpenRouter {
		return openrouter.ValidateBaseURL(c.OpenRouterBaseURL, c.OpenRouterAllowedHosts)
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		m := fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			m += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, "; ")
}

// NewLogger builds the process logger. Empty level means info, empty format
// means JSON.
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)
	switch format {
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return log, nil
}

// New wires the adapters selected by cfg into a usecase.
func New(ctx context.Context, cfg Config, log logrus.FieldLogger) (usecase.Usecase, error) {
	var (
		awsCfg    aws.Config
		awsLoaded bool
	)
	loadAWS := func() (aws.Config, error) {
		if awsLoaded {
			return awsCfg, nil
		}
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		c, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg, awsLoaded = c, true
		return c, nil
	}

	var (
		transcripts ports.TranscriptSource
		store       ports.HighlightStore
		model       ports.Model
	)

	if cfg.StoreDir != "" {
		fsStore := localfs.New(cfg.StoreDir)
		transcripts, store = fsStore, fsStore
		log.WithField("dir", cfg.StoreDir).Info("using local store")
	} else {
		c, err := loadAWS()
		if err != nil {
			return usecase.Usecase{}, err
		}
		transcripts = s3transcripts.New(s3.NewFromConfig(c), cfg.Bucket)
		store = dynamostore.New(dynamodb.NewFromConfig(c), cfg.HighlightTable)
		log.WithFields(logrus.Fields{"bucket": cfg.Bucket, "table": cfg.HighlightTable}).Info("using aws store")
	}

	switch cfg.Provider {
	case ProviderOpenRouter:
		model = openrouter.New(cfg.OpenRouterAPIKey, cfg.ModelID, cfg.OpenRouterBaseURL)
	case ProviderBedrock:
		c, err := loadAWS()
		if err != nil {
			return usecase.Usecase{}, err
		}
		model = bedrock.New(c, cfg.BedrockRegion, cfg.ModelID)
	default:
		return usecase.Usecase{}, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}

	return usecase.New(usecase.Deps{
		Transcripts: transcripts,
		Model:       model,
		Store:       store,
		Backoff:     cfg.Backoff,
		Bucket:      cfg.Bucket,
		Log:         log,
	}), nil
}

// Select runs one highlight selection with a fresh run id.
func Select(ctx context.Context, cfg Config, log logrus.FieldLogger, in usecase.SelectInput) (usecase.SelectResult, error) {
	log = log.WithField("run_id", uuid.NewString())
	uc, err := New(ctx, cfg, log)
	if err != nil {
		return usecase.SelectResult{}, err
	}
	return uc.SelectHighlight(ctx, in)
}

// Consolidate runs one timeframe consolidation with a fresh run id.
func Consolidate(ctx context.Context, cfg Config, log logrus.FieldLogger, key types.HighlightKey) (usecase.ConsolidateResult, error) {
	log = log.WithField("run_id", uuid.NewString())
	uc, err := New(ctx, cfg, log)
	if err != nil {
		return usecase.ConsolidateResult{}, err
	}
	return uc.ConsolidateTimeframes(ctx, key)
}

// ensure adapters implement ports
var _ ports.Model = (*openrouter.Adapter)(nil)
var _ ports.Model = (*bedrock.Adapter)(nil)
var _ ports.TranscriptSource = (*s3transcripts.Source)(nil)
var _ ports.TranscriptSource = (*localfs.Store)(nil)
var _ ports.HighlightStore = (*dynamostore.Store)(nil)
var _ ports.HighlightStore = (*localfs.Store)(nil)
