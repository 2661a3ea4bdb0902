package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/forPelevin/topiccut/internal/types"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	maxTokens        = 4096
)

type invoker interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Adapter struct {
	client invoker
	model  string
}

// New builds a Bedrock runtime client for region (empty keeps cfg.Region).
// SDK retries are disabled; throttling is surfaced as types.ErrRateLimited
// and retried by the caller.
func New(cfg aws.Config, region, model string) *Adapter {
	client := bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		if region != "" {
			o.Region = region
		}
		o.RetryMaxAttempts = 1
	})
	return NewWithClient(client, model)
}

func NewWithClient(client invoker, model string) *Adapter {
	return &Adapter{client: client, model: model}
}

type message struct {
	Role    string    `json:"role"`
	Content []content `json:"content"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type requestBody struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
}

type responseBody struct {
	Content []content `json:"content"`
}

func (a *Adapter) Complete(ctx context.Context, in types.ModelRequest) (string, error) {
	model := in.ModelID
	if model == "" {
		model = a.model
	}
	if model == "" {
		return "", errors.New("bedrock: model id is empty")
	}

	body, err := json.Marshal(requestBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		System:           in.System,
		Messages: []message{{
			Role:    "user",
			Content: []content{{Type: "text", Text: in.User}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	out, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		if isThrottle(err) {
			return "", fmt.Errorf("bedrock invoke (model=%s): %w: %w", model, types.ErrRateLimited, err)
		}
		return "", fmt.Errorf("bedrock invoke (model=%s): %w", model, err)
	}

	var resp responseBody
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("bedrock decode response: %w", err)
	}
	var b strings.Builder
	for _, c := range resp.Content {
		if c.Type == "" || c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("bedrock: empty content")
	}
	return b.String(), nil
}

func isThrottle(err error) bool {
	var te *brtypes.ThrottlingException
	if errors.As(err, &te) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}
	return false
}
