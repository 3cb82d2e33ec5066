package repair

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/statekit"
	"go.uber.org/zap"

	"github.com/dshills/codecritic/internal/interpret"
	"github.com/dshills/codecritic/internal/llm"
	"github.com/dshills/codecritic/internal/prompt"
	"github.com/dshills/codecritic/internal/redact"
	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

const (
	// DefaultMaxIterations bounds review passes per run.
	DefaultMaxIterations = 3
	// fixAttempts bounds generation retries within one fixing stage.
	fixAttempts = 2

	fixTemperature = 0.3
)

// ExhaustedMessage tells the user what to do when automatic fixing gives up.
const ExhaustedMessage = "Automatic fix unavailable. Try a larger language model, simplify the code, or fix the issues manually."

// Loop states and events.
const (
	stateIdle      = "idle"
	stateReviewing = "reviewing"
	stateFixing    = "fixing"
	stateDone      = "done"
	stateExhausted = "exhausted"

	eventStart   = "start"
	eventClean   = "clean"
	eventRevised = "revised"
	eventDirty   = "dirty"
	eventFixed   = "fixed"
	eventGiveUp  = "give_up"
)

// Step records one loop iteration: the judgement and the code it was made on.
type Step struct {
	Iteration int
	Code      string
	Judgement *review.Judgement
	Fixed     bool
}

// Result is the outcome of one loop run. Unit is the final revision, which
// is the input unit unchanged when no fix ever applied.
type Result struct {
	Unit       *source.Unit
	Iterations int
	Success    bool
	History    []Step
	Message    string
}

// LoopOptions configures a Loop. Zero values get defaults.
type LoopOptions struct {
	MaxIterations int
	Model         string
	Prompt        prompt.Context
	Observer      Observer
	Logger        *zap.Logger
}

// Loop drives review-fix cycles over a unit until the review comes back
// clean or carrying its own revision, the fix stage gives up, or the
// iteration budget runs out. Each run gets a fresh state machine.
type Loop struct {
	reviewer *Reviewer
	provider llm.Provider
	opts     LoopOptions
	logger   *zap.Logger
	observer Observer
	retryCfg retry.Config
}

// NewLoop builds a loop. The provider handles fix generation; reviews go
// through the reviewer, which may use a different provider or a cache.
func NewLoop(reviewer *Reviewer, provider llm.Provider, opts LoopOptions) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	return &Loop{
		reviewer: reviewer,
		provider: provider,
		opts:     opts,
		logger:   logger,
		observer: observer,
		retryCfg: retry.Config{
			MaxAttempts:   fixAttempts,
			InitialDelay:  100 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Run executes review-fix cycles starting from u.
func (l *Loop) Run(ctx context.Context, u *source.Unit) (*Result, error) {
	fsm, err := newLoopFSM()
	if err != nil {
		return nil, err
	}

	res := &Result{Unit: u}
	current := u
	fsm.send(eventStart)

	for fsm.state() == stateReviewing {
		res.Iterations++
		iteration := res.Iterations

		j := l.reviewer.Review(ctx, current)
		l.observer.ReviewDone(iteration, j)
		step := Step{Iteration: iteration, Code: current.Raw, Judgement: j}

		if j.Valid && j.Clean() {
			fsm.send(eventClean)
			res.History = append(res.History, step)
			res.Success = true
			break
		}

		// A review that already carries a revision ends the run; asking the
		// model again would just regenerate what it handed over.
		if j.ImprovedCode != "" && j.ImprovedCode != current.Raw {
			fsm.send(eventRevised)
			step.Fixed = true
			res.History = append(res.History, step)
			res.Unit = source.New(j.ImprovedCode)
			res.Success = true
			break
		}

		fsm.send(eventDirty)
		fixed, ok := l.fix(ctx, current, j)
		l.observer.FixDone(iteration, ok)
		if !ok {
			fsm.send(eventGiveUp)
			res.History = append(res.History, step)
			res.Message = ExhaustedMessage
			break
		}

		step.Fixed = true
		res.History = append(res.History, step)
		current = source.New(fixed)
		res.Unit = current

		if iteration >= l.opts.MaxIterations {
			fsm.send(eventGiveUp)
			res.Message = ExhaustedMessage
			break
		}
		fsm.send(eventFixed)
	}

	l.logger.Info("repair loop finished",
		zap.Int("iterations", res.Iterations),
		zap.Bool("success", res.Success),
		zap.String("state", fsm.state()))
	return res, nil
}

// fix produces a corrected revision for a dirty judgement. The model is
// asked with retries, and the answer must contain code that differs from
// the input.
func (l *Loop) fix(ctx context.Context, u *source.Unit, j *review.Judgement) (string, bool) {
	masked := source.New(redact.Mask(u.Raw))
	p := prompt.BuildFix(masked, j, l.opts.Prompt)

	retryer := retry.New[string](l.retryCfg)
	code, err := retryer.Do(ctx, func(ctx context.Context) (string, error) {
		raw, err := l.provider.Generate(ctx, p, llm.Settings{
			Model:       l.opts.Model,
			System:      prompt.FixSystem,
			Temperature: fixTemperature,
		})
		if err != nil {
			return "", fmt.Errorf("repair: fix generation: %w", err)
		}
		fixed, ok := interpret.ExtractCode(raw)
		if !ok {
			return "", fmt.Errorf("repair: fix response contained no code")
		}
		if fixed == masked.Raw || fixed == u.Raw {
			return "", fmt.Errorf("repair: fix identical to input")
		}
		return fixed, nil
	})
	if err != nil {
		l.logger.Warn("automatic fix failed", zap.Error(err))
		return "", false
	}
	return code, true
}

type loopContext struct{}

type loopFSM struct {
	interp *statekit.Interpreter[loopContext]
}

func newLoopFSM() (*loopFSM, error) {
	builder := statekit.NewMachine[loopContext]("repair-loop").
		WithInitial(statekit.StateID(stateIdle)).
		WithContext(loopContext{})

	builder.State(stateIdle).
		On(eventStart).Target(stateReviewing).
		Done()
	builder.State(stateReviewing).
		On(eventClean).Target(stateDone).
		On(eventRevised).Target(stateDone).
		On(eventDirty).Target(stateFixing).
		On(eventGiveUp).Target(stateExhausted).
		Done()
	builder.State(stateFixing).
		On(eventFixed).Target(stateReviewing).
		On(eventGiveUp).Target(stateExhausted).
		Done()
	// Terminal states accept a restart so a loop value could be replayed.
	builder.State(stateDone).
		On(eventStart).Target(stateReviewing).
		Done()
	builder.State(stateExhausted).
		On(eventStart).Target(stateReviewing).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("repair: build state machine: %w", err)
	}
	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &loopFSM{interp: interp}, nil
}

func (f *loopFSM) send(event string) {
	f.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

func (f *loopFSM) state() string {
	return string(f.interp.State().Value)
}
