package anthropic

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/duskward/ttrpgcore/planner"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
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

func TestPlanTranslatesToolUseBlocksIntoActionSteps(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{
				{Type: "tool_use", Name: "attack", Input: map[string]any{"target": "npc.goblin"}},
			},
		},
	}
	c, err := New(stub, Options{Model: "claude-3.5-sonnet"})
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
	if stub.lastParams.Model != "claude-3.5-sonnet" {
		t.Fatalf("model not threaded through: %v", stub.lastParams.Model)
	}
}

func TestPlanFailsWhenNoToolUseBlocksReturned(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{}}
	c, err := New(stub, Options{Model: "claude-3.5-sonnet"})
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

func TestPlanPropagatesMessagesClientError(t *testing.T) {
	stub := &stubMessagesClient{err: errors.New("boom")}
	c, err := New(stub, Options{Model: "claude-3.5-sonnet"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Plan(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestNewRejectsMissingModel(t *testing.T) {
	if _, err := New(&stubMessagesClient{}, Options{}); err == nil {
		t.Fatalf("expected error for missing model")
	}
}

func TestNewRejectsNilClient(t *testing.T) {
	if _, err := New(nil, Options{Model: "claude-3.5-sonnet"}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
