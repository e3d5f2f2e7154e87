// internal/genai/client.go
package genai

import (
    "context"
    "strings"

    sdk "github.com/anthropics/anthropic-sdk-go"
    "github.com/anthropics/anthropic-sdk-go/option"
    "github.com/rotisserie/eris"
)

// Client is the content-generation collaborator: one free-text prompt in,
// one free-text email out. Implementations must respect ctx deadlines.
type Client interface {
    Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultModel is used when GEN_MODEL is not configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
    client    sdk.Client
    model     string
    maxTokens int64
}

// NewClient creates a generation client backed by the SDK.
func NewClient(apiKey, model string) Client {
    if model == "" {
        model = DefaultModel
    }
    return &sdkClient{
        client: sdk.NewClient(
            option.WithAPIKey(apiKey),
        ),
        model:     model,
        maxTokens: 1024,
    }
}

func (c *sdkClient) Generate(ctx context.Context, prompt string) (string, error) {
    msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
        Model:     sdk.Model(c.model),
        MaxTokens: c.maxTokens,
        Messages: []sdk.MessageParam{
            sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
        },
    })
    if err != nil {
        return "", eris.Wrap(err, "genai: create message")
    }

    var b strings.Builder
    for _, block := range msg.Content {
        if block.Type == "text" {
            b.WriteString(block.Text)
        }
    }
    return strings.TrimSpace(b.String()), nil
}
