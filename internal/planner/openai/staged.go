package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/duskward/ttrpgcore/planner"
)

// intentSystemPrompt is stage 1's system prompt: classify the utterance
// into a list of tool names with no world context at all, so a cheap model
// can run it and hallucinated arguments never enter the picture.
const intentSystemPrompt = `You are an intent classifier for a tabletop game.
Given the player's message, return ONLY a JSON object with a "tools" field
containing a list of tool names drawn from the ones offered to you.`

// StagedClient wraps Client with a two-stage plan: an intent-classification
// call (tool names only) followed by an argument-filling call scoped to
// just those tools. It implements both planner.Planner (falling through to
// the single-stage Plan) and planner.StagedPlanner.
type StagedClient struct {
	*Client
}

// NewStaged wraps an existing Client for two-stage planning.
func NewStaged(c *Client) *StagedClient {
	return &StagedClient{Client: c}
}

// PlanStaged implements planner.StagedPlanner.
func (s *StagedClient) PlanStaged(ctx context.Context, req planner.Request) (planner.Result, error) {
	toolNames, err := s.classifyIntent(ctx, req)
	if err != nil {
		return planner.Result{}, err
	}
	if len(toolNames) == 0 {
		return planner.Result{OK: false, Error: "openai: intent stage returned no tools", Confidence: 0.1}, nil
	}
	return s.fillArguments(ctx, req, toolNames)
}

func (s *StagedClient) classifyIntent(ctx context.Context, req planner.Request) ([]string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("openai: rate limit wait: %w", err)
		}
	}
	known := make(map[string]bool, len(req.Candidates))
	var offered []string
	for _, c := range req.Candidates {
		known[c.ID] = true
		offered = append(offered, c.ID)
	}

	resp, err := s.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(intentSystemPrompt + "\nAvailable tools: " + strings.Join(offered, ", ")),
			openai.UserMessage(fmt.Sprintf("Player message: %q", req.Utterance)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: intent stage: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: intent stage: no choices in response")
	}

	var parsed struct {
		Tools []string `json:"tools"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("openai: intent stage: parse response: %w", err)
	}
	var valid []string
	for _, name := range parsed.Tools {
		if known[name] {
			valid = append(valid, name)
		}
	}
	return valid, nil
}

func (s *StagedClient) fillArguments(ctx context.Context, req planner.Request, toolNames []string) (planner.Result, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return planner.Result{}, fmt.Errorf("openai: rate limit wait: %w", err)
		}
	}
	filtered := make([]planner.Candidate, 0, len(toolNames))
	for _, c := range req.Candidates {
		for _, name := range toolNames {
			if c.ID == name {
				filtered = append(filtered, c)
			}
		}
	}
	tools, err := encodeTools(filtered)
	if err != nil {
		return planner.Result{}, err
	}

	view, _ := json.Marshal(req.WorldView)
	resp, err := s.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Fill the arguments for the requested tools using the world view below. Call every tool listed, in order."),
			openai.UserMessage(fmt.Sprintf("Player message: %q\nWorld view: %s", req.Utterance, string(view))),
		},
		Tools: tools,
	})
	if err != nil {
		return planner.Result{}, fmt.Errorf("openai: argument stage: %w", err)
	}
	res := translateResponse(resp)
	if res.OK {
		res.Confidence = 0.9
	}
	return res, nil
}
