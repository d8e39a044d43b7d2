// Package anthropic adapts github.com/anthropics/anthropic-sdk-go into the
// planner.Planner contract: it offers the affordance-filtered candidates as
// Claude tool definitions, sends one Messages.New call, and translates every
// tool_use block in the response into a planner.ActionStep.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/duskward/ttrpgcore/planner"
	"github.com/duskward/ttrpgcore/toolcatalog"
)

// MessagesClient captures the subset of the Anthropic SDK used by the
// adapter, satisfied by *sdk.MessageService so callers can substitute a
// fake in tests.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the adapter.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// RateLimit caps outbound calls per second; zero disables throttling.
	RateLimit rate.Limit
	Burst     int
}

// Client implements planner.Planner on top of Anthropic's Messages API.
type Client struct {
	msg     MessagesClient
	model   string
	maxTok  int64
	temp    float64
	limiter *rate.Limiter
}

// New builds a Client from an already-constructed Anthropic messages
// client.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("anthropic: model identifier is required")
	}
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = 1024
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return &Client{msg: msg, model: opts.Model, maxTok: int64(maxTok), temp: opts.Temperature, limiter: limiter}, nil
}

// NewFromAPIKey constructs a Client using the default Anthropic HTTP
// client, passing apiKey through option.WithAPIKey. It reads no environment
// variable and returns an error when apiKey is empty.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, opts)
}

// Plan implements planner.Planner.
func (c *Client) Plan(ctx context.Context, req planner.Request) (planner.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return planner.Result{}, fmt.Errorf("anthropic: rate limit wait: %w", err)
		}
	}

	tools, err := encodeTools(req.Candidates)
	if err != nil {
		return planner.Result{}, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTok,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(promptFor(req))),
		},
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if c.temp > 0 {
		params.Temperature = sdk.Float(c.temp)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return planner.Result{}, fmt.Errorf("anthropic: messages.new: %w", err)
	}
	return translateResponse(msg), nil
}

func promptFor(req planner.Request) string {
	view, _ := json.Marshal(req.WorldView)
	return fmt.Sprintf("Actor %s said: %q\nWorld view: %s\nChoose one or more tool calls that carry out the actor's intent, in order.", req.ActorID, req.Utterance, string(view))
}

func encodeTools(cands []planner.Candidate) ([]sdk.ToolUnionParam, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(cands))
	for _, cand := range cands {
		raw, ok := toolcatalog.RawSchema(cand.ID)
		if !ok {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("anthropic: tool %s schema: %w", cand.ID, err)
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: doc}, cand.ID)
		if u.OfTool != nil {
			desc := cand.Description
			if desc == "" {
				desc = cand.ID
			}
			u.OfTool.Description = sdk.String(desc)
		}
		out = append(out, u)
	}
	return out, nil
}

func translateResponse(msg *sdk.Message) planner.Result {
	res := planner.Result{OK: true}
	for _, block := range msg.Content {
		if block.Type != "tool_use" {
			continue
		}
		args, _ := block.Input.(map[string]any)
		res.Actions = append(res.Actions, planner.ActionStep{Tool: block.Name, Args: args})
	}
	if len(res.Actions) == 0 {
		res.OK = false
		res.Error = "anthropic: no tool_use blocks in response"
	}
	res.Confidence = 1.0
	return res
}
