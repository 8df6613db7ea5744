// Package agent runs the reason-act loop: the model thinks, optionally calls
// a tool, reads the observation and repeats until it commits to an answer.
package agent

import (
	"context"
	"strconv"
	"strings"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	// StopSequence keeps the model from writing its own tool results
	StopSequence = "Observation:"

	tailScanChars = 500
)

// Model completes a prompt
type Model interface {
	Invoke(ctx context.Context, prompt string, stop ...string) (string, error)
}

// Tools is the registry surface the agent uses
type Tools interface {
	Execute(ctx context.Context, name, input string) string
	Describe() string
	Names() []string
}

// State of the loop
type State int

const (
	StateThinking State = iota
	StateActing
	StateObserving
	StateDone
)

func (s State) String() string {
	switch s {
	case StateThinking:
		return "thinking"
	case StateActing:
		return "acting"
	case StateObserving:
		return "observing"
	}
	return "done"
}

// Outcome says how the loop reached Done
type Outcome string

const (
	OutcomeFinalAnswer Outcome = "final_answer"
	OutcomeFreeAnswer  Outcome = "free_answer"
	OutcomeExhausted   Outcome = "exhausted"
	OutcomeModelError  Outcome = "model_error"
)

// Result of one agent run
type Result struct {
	Letter     string
	Outcome    Outcome
	Calls      int
	Steps      []entity.AgentStep
	Transcript string
}

type Agent struct {
	model    Model
	tools    Tools
	maxSteps int
	metrics  *metrics.Metrics
}

func New(model Model, tools Tools, maxSteps int, m *metrics.Metrics) *Agent {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &Agent{
		model:    model,
		tools:    tools,
		maxSteps: maxSteps,
		metrics:  m,
	}
}

// Answer runs the loop for q, with passage as optional supporting text.
// It always produces a letter of the question's alphabet. The only error is
// ctx cancellation; a failed model call ends the run with the default letter.
func (a *Agent) Answer(ctx context.Context, q *entity.Question, passage string) (*Result, error) {
	logger := ctxzap.Extract(ctx)
	alphabet := q.Letters()
	parser := NewParser(alphabet)

	res := &Result{}
	transcript := buildPrompt(a.tools.Describe(), a.tools.Names(), alphabet, passage, q.QuestionText(), q.FormatChoices())

	var (
		state    = StateThinking
		step     = 0
		response string
		parsed   Step
		obs      string
	)

	for state != StateDone {
		switch state {
		case StateThinking:
			if step >= a.maxSteps {
				logger.Warn("agent reached max steps without final answer", zap.Int("max_steps", a.maxSteps))
				res.Outcome = OutcomeExhausted
				res.Letter = exhaustedLetter(parser, transcript, alphabet)
				state = StateDone
				continue
			}
			step++

			var err error
			response, err = a.model.Invoke(ctx, transcript, StopSequence)
			res.Calls++
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Error("model call failed", zap.Int("step", step), zap.Error(err))
				res.Outcome = OutcomeModelError
				res.Letter = alphabet[:1]
				state = StateDone
				continue
			}

			parsed = parser.ParseStep(response)
			logger.Debug("agent step", zap.Int("step", step), zap.Stringer("kind", parsed.Kind))

			switch parsed.Kind {
			case StepFinalAnswer:
				res.Outcome, res.Letter, state = OutcomeFinalAnswer, parsed.Letter, StateDone
			case StepFreeAnswer:
				res.Outcome, res.Letter, state = OutcomeFreeAnswer, parsed.Letter, StateDone
			case StepAction:
				state = StateActing
			default:
				transcript += response + "\nThought:"
			}

		case StateActing:
			obs = a.tools.Execute(ctx, parsed.Action, parsed.Input)
			state = StateObserving

		case StateObserving:
			res.Steps = append(res.Steps, entity.AgentStep{
				Thought:     parsed.Thought,
				Action:      parsed.Action,
				ActionInput: parsed.Input,
				Observation: obs,
			})
			transcript += response + "\nObservation: " + obs + "\nThought:"
			state = StateThinking
		}
	}

	res.Transcript = transcript
	a.metrics.AgentRun(res.Calls)
	logger.Info("agent finished",
		zap.String("outcome", string(res.Outcome)),
		zap.String("letter", res.Letter),
		zap.Int("model_calls", res.Calls),
		zap.Int("tool_calls", len(res.Steps)),
	)
	return res, nil
}

func exhaustedLetter(p *Parser, transcript, alphabet string) string {
	runes := []rune(transcript)
	if len(runes) > tailScanChars {
		runes = runes[len(runes)-tailScanChars:]
	}
	if letter, ok := p.BareLetter(string(runes)); ok {
		return letter
	}
	return alphabet[:1]
}

// Trace renders the tool-using steps for diagnostics
func Trace(steps []entity.AgentStep) string {
	var b strings.Builder
	for i, s := range steps {
		if i > 0 {
			b.WriteString("\n")
		}
		thought := []rune(s.Thought)
		if len(thought) > 100 {
			thought = thought[:100]
		}
		b.WriteString("Step " + strconv.Itoa(i+1) + ":\n")
		b.WriteString("  Thought: " + string(thought) + "...")
		if s.Action != "" {
			b.WriteString("\n  Action: " + s.Action)
			b.WriteString("\n  Action Input: " + s.ActionInput)
			b.WriteString("\n  Observation: " + s.Observation)
		}
	}
	return b.String()
}
