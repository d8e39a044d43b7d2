// Command ttrpgcore runs an interactive turn loop against a save
// directory: one line of player input per turn, each step's facts printed to
// stdout, and an autosave after every turn.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goa.design/clue/log"

	"github.com/duskward/ttrpgcore/effects"
	"github.com/duskward/ttrpgcore/internal/telemetry"
	"github.com/duskward/ttrpgcore/persistence"
	"github.com/duskward/ttrpgcore/planner"
	"github.com/duskward/ttrpgcore/turnpipeline"
	"github.com/duskward/ttrpgcore/validator"
	"github.com/duskward/ttrpgcore/world"
)

func main() {
	var (
		saveDirF = flag.String("save-dir", "./save", "save directory to load from and autosave into")
		actorF   = flag.String("actor", "", "actor id to act as (defaults to the scene's current actor)")
		plannerF = flag.String("planner", "stub", "planner backend: stub, anthropic, openai, bedrock")
		modelF   = flag.String("model", "", "planner model identifier (required for non-stub backends)")
		dbgF     = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		log.Print(ctx, log.KV{K: "msg", V: "shutting down"})
		cancel()
	}()

	logger := telemetry.NewClueLogger()

	gs, err := loadOrCreateGameState(*saveDirF)
	if err != nil {
		log.Fatal(ctx, err)
	}

	p, err := buildPlanner(*plannerF, *modelF)
	if err != nil {
		log.Fatal(ctx, err)
	}

	engine := effects.NewEngine()
	executor := validator.NewExecutor(engine)
	outcomes := turnpipeline.DefaultOutcomeTable(engine)
	rt := turnpipeline.NewRuntime(p, executor, outcomes)

	logger.Info(ctx, "ttrpgcore ready", "save_dir", *saveDirF, "planner", *plannerF)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("ttrpgcore — type a line to act, Ctrl-D to quit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		if ctx.Err() != nil {
			break
		}

		result := rt.RunTurn(ctx, gs, line, *actorF, nil)
		printTurn(result)

		if err := persistence.Save(gs, *saveDirF, time.Now()); err != nil {
			logger.Error(ctx, "autosave failed", "err", err)
		}
	}

	logger.Info(ctx, "exiting")
}

// loadOrCreateGameState loads dir's save, falling back to a fresh empty
// scene only when dir does not exist; any other load error is returned.
func loadOrCreateGameState(dir string) (*world.GameState, error) {
	gs, err := persistence.Load(dir)
	if err == nil {
		return gs, nil
	}
	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		scene := world.NewScene("scene-1", nil, 10, world.NewMeta(world.VisibilityPublic, time.Now()))
		return world.NewGameState(scene), nil
	}
	return nil, err
}

// buildPlanner selects a planner.Planner implementation by name. Only the
// stub backend needs no external credentials; the provider backends read
// their API keys from the environment variable convention each adapter's
// NewFromAPIKey constructor already follows.
func buildPlanner(name, model string) (planner.Planner, error) {
	switch name {
	case "stub", "":
		return stubPlanner{}, nil
	case "anthropic":
		return newAnthropicPlanner(model)
	case "openai":
		return newOpenAIPlanner(model)
	case "bedrock":
		return newBedrockPlanner(model)
	default:
		return nil, fmt.Errorf("ttrpgcore: unknown planner backend %q", name)
	}
}

// stubPlanner always asks for clarification; it lets the CLI run end to end
// without any provider credentials configured.
type stubPlanner struct{}

func (stubPlanner) Plan(_ context.Context, req planner.Request) (planner.Result, error) {
	return planner.Result{OK: false, Error: "stub planner: no backend configured", Confidence: 0}, nil
}

func printTurn(res turnpipeline.TurnResult) {
	for _, step := range res.Steps {
		status := "ok"
		if !step.Result.OK {
			status = "failed"
		}
		fmt.Printf("[%s:%s] %v\n", step.Tool, status, step.Result.Facts)
	}
	if res.Aborted {
		fmt.Println("(sequence aborted)")
	}
	if res.PlannerError != "" {
		fmt.Printf("(planner: %s)\n", res.PlannerError)
	}
}
