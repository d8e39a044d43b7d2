package openai

import (
	"context"
	"testing"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/duskward/ttrpgcore/planner"
)

type stagedStubChatClient struct {
	calls []openai.ChatCompletionNewParams
	resps []*openai.ChatCompletion
}

func (s *stagedStubChatClient) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	idx := len(s.calls)
	s.calls = append(s.calls, body)
	return s.resps[idx], nil
}

func stagedTestRequest() planner.Request {
	return planner.Request{
		Utterance: "I attack the goblin",
		ActorID:   "pc.arin",
		WorldView: map[string]any{"zone": "courtyard"},
		Candidates: []planner.Candidate{
			{ID: "attack", Description: "Attack a visible actor", Confidence: 0.8},
			{ID: "talk", Description: "Talk to a visible actor", Confidence: 0.2},
		},
	}
}

func TestPlanStagedRunsIntentThenArgumentFillStages(t *testing.T) {
	stub := &stagedStubChatClient{
		resps: []*openai.ChatCompletion{
			{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: `{"tools":["attack"]}`}},
				},
			},
			chatCompletionWithToolCall("attack", `{"target":"npc.goblin"}`),
		},
	}
	c, err := New(stub, Options{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	staged := NewStaged(c)

	res, err := staged.PlanStaged(context.Background(), stagedTestRequest())
	if err != nil {
		t.Fatalf("PlanStaged: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected OK result, got error %q", res.Error)
	}
	if len(res.Actions) != 1 || res.Actions[0].Tool != "attack" {
		t.Fatalf("unexpected actions: %+v", res.Actions)
	}
	if len(stub.calls) != 2 {
		t.Fatalf("expected two staged calls, got %d", len(stub.calls))
	}
}

func TestPlanStagedFailsWhenIntentStageFindsNoTools(t *testing.T) {
	stub := &stagedStubChatClient{
		resps: []*openai.ChatCompletion{
			{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: `{"tools":[]}`}},
				},
			},
		},
	}
	c, err := New(stub, Options{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	staged := NewStaged(c)

	res, err := staged.PlanStaged(context.Background(), stagedTestRequest())
	if err != nil {
		t.Fatalf("PlanStaged: %v", err)
	}
	if res.OK {
		t.Fatalf("expected OK=false when intent stage finds nothing")
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected argument stage to be skipped, got %d calls", len(stub.calls))
	}
}

func TestPlanStagedDropsUnknownToolNamesFromIntentStage(t *testing.T) {
	stub := &stagedStubChatClient{
		resps: []*openai.ChatCompletion{
			{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: `{"tools":["attack","fly"]}`}},
				},
			},
			chatCompletionWithToolCall("attack", `{"target":"npc.goblin"}`),
		},
	}
	c, err := New(stub, Options{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	staged := NewStaged(c)

	res, err := staged.PlanStaged(context.Background(), stagedTestRequest())
	if err != nil {
		t.Fatalf("PlanStaged: %v", err)
	}
	if !res.OK || len(res.Actions) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(stub.calls[1].Tools) != 1 {
		t.Fatalf("expected argument stage to only carry the known tool, got %d", len(stub.calls[1].Tools))
	}
}
