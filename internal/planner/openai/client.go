// Package openai adapts github.com/openai/openai-go into the
// planner.Planner contract: affordance-filtered candidates become OpenAI
// function tools, one Chat Completions call is issued, and every returned
// tool call is translated into a planner.ActionStep.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"

	"github.com/duskward/ttrpgcore/planner"
	"github.com/duskward/ttrpgcore/toolcatalog"
)

// ChatClient captures the subset of the official OpenAI SDK used by the
// adapter, satisfied by the client's Chat.Completions service.
type ChatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Options configures the adapter.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	RateLimit   rate.Limit
	Burst       int
}

// Client implements planner.Planner on top of OpenAI Chat Completions.
type Client struct {
	chat    ChatClient
	model   string
	maxTok  int64
	temp    float64
	limiter *rate.Limiter
}

// New builds a Client from an already-constructed chat completions
// service.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai: chat client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("openai: model identifier is required")
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return &Client{chat: chat, model: opts.Model, maxTok: int64(opts.MaxTokens), temp: opts.Temperature, limiter: limiter}, nil
}

// NewFromAPIKey constructs a Client using the default OpenAI HTTP client.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Chat.Completions, opts)
}

// Plan implements planner.Planner.
func (c *Client) Plan(ctx context.Context, req planner.Request) (planner.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return planner.Result{}, fmt.Errorf("openai: rate limit wait: %w", err)
		}
	}

	tools, err := encodeTools(req.Candidates)
	if err != nil {
		return planner.Result{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(promptFor(req)),
		},
		Tools: tools,
	}
	if c.maxTok > 0 {
		params.MaxTokens = openai.Int(c.maxTok)
	}
	if c.temp > 0 {
		params.Temperature = openai.Float(c.temp)
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return planner.Result{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	return translateResponse(resp), nil
}

func promptFor(req planner.Request) string {
	view, _ := json.Marshal(req.WorldView)
	return fmt.Sprintf("Actor %s said: %q\nWorld view: %s\nChoose one or more tool calls that carry out the actor's intent, in order.", req.ActorID, req.Utterance, string(view))
}

func encodeTools(cands []planner.Candidate) ([]openai.ChatCompletionToolUnionParam, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(cands))
	for _, cand := range cands {
		raw, ok := toolcatalog.RawSchema(cand.ID)
		if !ok {
			continue
		}
		var params shared.FunctionParameters
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("openai: tool %s schema: %w", cand.ID, err)
		}
		desc := cand.Description
		if desc == "" {
			desc = cand.ID
		}
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        cand.ID,
			Description: openai.String(desc),
			Parameters:  params,
		}))
	}
	return out, nil
}

func translateResponse(resp *openai.ChatCompletion) planner.Result {
	res := planner.Result{OK: true, Confidence: 1.0}
	if len(resp.Choices) == 0 {
		res.OK = false
		res.Error = "openai: no choices in response"
		return res
	}
	for _, call := range resp.Choices[0].Message.ToolCalls {
		args := parseArguments(call.Function.Arguments)
		res.Actions = append(res.Actions, planner.ActionStep{Tool: call.Function.Name, Args: args})
	}
	if len(res.Actions) == 0 {
		res.OK = false
		res.Error = "openai: no tool calls in response"
	}
	return res
}

func parseArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{"raw": raw}
	}
	return out
}
