// Package bedrock adapts the AWS Bedrock Converse API
// (aws-sdk-go-v2/service/bedrockruntime) into the planner.Planner contract:
// affordance-filtered candidates become a Bedrock ToolConfiguration, one
// Converse call is issued, and every toolUse content block in the response
// is translated into a planner.ActionStep.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"golang.org/x/time/rate"

	"github.com/duskward/ttrpgcore/planner"
	"github.com/duskward/ttrpgcore/toolcatalog"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client the
// adapter needs, satisfied by *bedrockruntime.Client.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures the adapter.
type Options struct {
	ModelID     string
	MaxTokens   int
	Temperature float32
	RateLimit   rate.Limit
	Burst       int
}

// Client implements planner.Planner on top of Bedrock Converse.
type Client struct {
	runtime RuntimeClient
	modelID string
	maxTok  int32
	temp    float32
	limiter *rate.Limiter
}

// New builds a Client around an already-constructed Bedrock runtime
// client.
func New(runtime RuntimeClient, opts Options) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if opts.ModelID == "" {
		return nil, errors.New("bedrock: model identifier is required")
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return &Client{runtime: runtime, modelID: opts.ModelID, maxTok: int32(opts.MaxTokens), temp: opts.Temperature, limiter: limiter}, nil
}

// Plan implements planner.Planner.
func (c *Client) Plan(ctx context.Context, req planner.Request) (planner.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return planner.Result{}, fmt.Errorf("bedrock: rate limit wait: %w", err)
		}
	}

	toolConfig, err := encodeToolConfig(req.Candidates)
	if err != nil {
		return planner.Result{}, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: promptFor(req)},
				},
			},
		},
		ToolConfig: toolConfig,
	}
	if c.maxTok > 0 || c.temp > 0 {
		cfg := &brtypes.InferenceConfiguration{}
		if c.maxTok > 0 {
			cfg.MaxTokens = aws.Int32(c.maxTok)
		}
		if c.temp > 0 {
			cfg.Temperature = aws.Float32(c.temp)
		}
		input.InferenceConfig = cfg
	}

	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		return planner.Result{}, fmt.Errorf("bedrock: converse: %w", err)
	}
	return translateResponse(out)
}

func promptFor(req planner.Request) string {
	view, _ := json.Marshal(req.WorldView)
	return fmt.Sprintf("Actor %s said: %q\nWorld view: %s\nChoose one or more tool calls that carry out the actor's intent, in order.", req.ActorID, req.Utterance, string(view))
}

func encodeToolConfig(cands []planner.Candidate) (*brtypes.ToolConfiguration, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	tools := make([]brtypes.Tool, 0, len(cands))
	for _, cand := range cands {
		raw, ok := toolcatalog.RawSchema(cand.ID)
		if !ok {
			continue
		}
		var schemaDoc map[string]any
		if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
			return nil, fmt.Errorf("bedrock: tool %s schema: %w", cand.ID, err)
		}
		desc := cand.Description
		if desc == "" {
			desc = cand.ID
		}
		tools = append(tools, &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(cand.ID),
				Description: aws.String(desc),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schemaDoc)},
			},
		})
	}
	if len(tools) == 0 {
		return nil, nil
	}
	return &brtypes.ToolConfiguration{Tools: tools}, nil
}

func translateResponse(out *bedrockruntime.ConverseOutput) (planner.Result, error) {
	res := planner.Result{OK: true, Confidence: 1.0}
	msgOutput, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		res.OK = false
		res.Error = "bedrock: response carries no message output"
		return res, nil
	}
	for _, block := range msgOutput.Value.Content {
		toolUse, ok := block.(*brtypes.ContentBlockMemberToolUse)
		if !ok {
			continue
		}
		var args map[string]any
		if err := toolUse.Value.Input.UnmarshalSmithyDocument(&args); err != nil {
			return planner.Result{}, fmt.Errorf("bedrock: decode tool_use input: %w", err)
		}
		res.Actions = append(res.Actions, planner.ActionStep{Tool: aws.ToString(toolUse.Value.Name), Args: args})
	}
	if len(res.Actions) == 0 {
		res.OK = false
		res.Error = "bedrock: no tool_use blocks in response"
	}
	return res, nil
}
