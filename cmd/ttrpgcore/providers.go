package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/time/rate"

	"github.com/duskward/ttrpgcore/internal/planner/anthropic"
	"github.com/duskward/ttrpgcore/internal/planner/bedrock"
	"github.com/duskward/ttrpgcore/internal/planner/openai"
	"github.com/duskward/ttrpgcore/planner"
)

// defaultRateLimit throttles every provider backend to a conservative
// request rate; the CLI has no per-session budget tracking of its own.
const defaultRateLimit = rate.Limit(2)

func newAnthropicPlanner(model string) (planner.Planner, error) {
	if model == "" {
		return nil, fmt.Errorf("ttrpgcore: -model is required for the anthropic backend")
	}
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ttrpgcore: ANTHROPIC_API_KEY is not set")
	}
	return anthropic.NewFromAPIKey(apiKey, anthropic.Options{
		Model:     model,
		RateLimit: defaultRateLimit,
		Burst:     1,
	})
}

func newOpenAIPlanner(model string) (planner.Planner, error) {
	if model == "" {
		return nil, fmt.Errorf("ttrpgcore: -model is required for the openai backend")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ttrpgcore: OPENAI_API_KEY is not set")
	}
	client, err := openai.NewFromAPIKey(apiKey, openai.Options{
		Model:     model,
		RateLimit: defaultRateLimit,
		Burst:     1,
	})
	if err != nil {
		return nil, err
	}
	if os.Getenv("TTRPGCORE_OPENAI_STAGED") != "" {
		return openai.NewStaged(client), nil
	}
	return client, nil
}

func newBedrockPlanner(model string) (planner.Planner, error) {
	if model == "" {
		return nil, fmt.Errorf("ttrpgcore: -model is required for the bedrock backend")
	}
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("ttrpgcore: load AWS config: %w", err)
	}
	rt := bedrockruntime.NewFromConfig(cfg)
	return bedrock.New(rt, bedrock.Options{
		ModelID:   model,
		RateLimit: defaultRateLimit,
		Burst:     1,
	})
}
