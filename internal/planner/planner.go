package planner

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"text/template"
	"time"

	"ai-life-planner/internal/lifeplan"
	"ai-life-planner/internal/llm"
	"ai-life-planner/internal/shared"

	"go.uber.org/zap"
)

//go:embed plan_prompt.md
var planPrompt string

var promptTemplate = template.Must(template.New("plan").Parse(planPrompt))

const (
	// AgentName labels the usage metrics of plan generation.
	AgentName = "LifePlanner"

	systemInstruction = "You are an expert life coach and productivity planner. " +
		"Your advice is realistic, highly actionable, empathetic, and structured."

	temperature float32 = 0.3
)

// KeySource returns the credential of the generation service. It is called
// once per GeneratePlan.
type KeySource func() (string, error)

// GeneratorFactory builds the text generator used for one call.
type GeneratorFactory func(ctx context.Context, apiKey string) (llm.TextGenerator, error)

// Client generates life plans. It holds no state between calls.
type Client struct {
	keys   KeySource
	newGen GeneratorFactory
	logger *zap.Logger
}

// NewClient creates a new Client instance.
func NewClient(keys KeySource, newGen GeneratorFactory, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{keys: keys, newGen: newGen, logger: logger}
}

// GeneratePlan asks the generation service for a plan built from input.
//
// It fails with a *lifeplan.ConfigurationError when no credential is set, in
// which case the service is never contacted. Every other failure is a
// *lifeplan.GenerationError carrying the generic message; the cause is logged.
// The returned meta is filled whenever the service answered, also on failure.
func (c *Client) GeneratePlan(ctx context.Context, input lifeplan.UserInput) (*lifeplan.GeneratedPlan, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: AgentName}

	apiKey, err := c.keys()
	if err == nil && apiKey == "" {
		err = errors.New("API key is empty")
	}
	if err != nil {
		c.logger.Warn("generation service not configured", zap.Error(err))
		return nil, meta, &lifeplan.ConfigurationError{Message: err.Error()}
	}

	prompt, err := buildPrompt(input)
	if err != nil {
		return nil, meta, c.fail(err)
	}

	gen, err := c.newGen(ctx, apiKey)
	if err != nil {
		return nil, meta, c.fail(fmt.Errorf("failed to create text generator: %w", err))
	}
	if closer, ok := gen.(llm.Closer); ok {
		defer closer.Close()
	}

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, llm.Request{
		Prompt:            prompt,
		SystemInstruction: systemInstruction,
		Schema:            planSchema,
		Temperature:       temperature,
	})
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, c.fail(err)
	}
	meta.Usage = resp.Usage

	if resp.Content == "" {
		return nil, meta, c.fail(errors.New("no text returned from generation service"))
	}

	plan, err := lifeplan.ParsePlan(resp.Content)
	if err != nil {
		return nil, meta, c.fail(fmt.Errorf("%w. Response: %s", err, resp.Content))
	}

	c.logger.Debug("plan generated",
		zap.Duration("latency", meta.Latency),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
	)
	return plan, meta, nil
}

func (c *Client) fail(cause error) error {
	c.logger.Error("error generating life plan", zap.Error(cause))
	return lifeplan.NewGenerationError(cause)
}

func buildPrompt(input lifeplan.UserInput) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("failed to build plan prompt: %w", err)
	}
	return buf.String(), nil
}
