package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/duskward/ttrpgcore/planner"
)

type stubChatClient struct {
	lastParams openai.ChatCompletionNewParams
	resp       *openai.ChatCompletion
	err        error
}

func (s *stubChatClient) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.lastParams = body
	return s.resp, s.err
}

func testRequest() planner.Request {
	return planner.Request{
		Utterance: "I attack the goblin",
		ActorID:   "pc.arin",
		WorldView: map[string]any{"zone": "courtyard"},
		Candidates: []planner.Candidate{
			{ID: "attack", Description: "Attack a visible actor", Confidence: 0.8},
		},
	}
}

func chatCompletionWithToolCall(name, args string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ChatCompletionMessageToolCallUnion{
						{
							Function: openai.ChatCompletionMessageToolCallFunction{
								Name:      name,
								Arguments: args,
							},
						},
					},
				},
			},
		},
	}
}

func TestPlanTranslatesToolCallsIntoActionSteps(t *testing.T) {
	stub := &stubChatClient{resp: chatCompletionWithToolCall("attack", `{"target":"npc.goblin"}`)}
	c, err := New(stub, Options{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Plan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected OK result, got error %q", res.Error)
	}
	if len(res.Actions) != 1 || res.Actions[0].Tool != "attack" {
		t.Fatalf("unexpected actions: %+v", res.Actions)
	}
	if res.Actions[0].Args["target"] != "npc.goblin" {
		t.Fatalf("unexpected args: %+v", res.Actions[0].Args)
	}
}

func TestPlanFailsWhenNoChoicesReturned(t *testing.T) {
	stub := &stubChatClient{resp: &openai.ChatCompletion{}}
	c, err := New(stub, Options{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Plan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.OK {
		t.Fatalf("expected OK=false, got true")
	}
}

func TestPlanPropagatesChatClientError(t *testing.T) {
	stub := &stubChatClient{err: errors.New("boom")}
	c, err := New(stub, Options{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Plan(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestParseArgumentsFallsBackToRawOnInvalidJSON(t *testing.T) {
	args := parseArguments("not json")
	if args["raw"] != "not json" {
		t.Fatalf("expected raw fallback, got %+v", args)
	}
}

func TestNewRejectsMissingModel(t *testing.T) {
	if _, err := New(&stubChatClient{}, Options{}); err == nil {
		t.Fatalf("expected error for missing model")
	}
}
