package inference

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/futig/mcq-reasoner/internal/agent"
	"github.com/futig/mcq-reasoner/internal/answer"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/retrieval"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// charsPerToken is a conservative estimate used to turn the token budget
// into a character budget
const charsPerToken = 3.5

// Path records which route produced the letter
type Path string

const (
	PathDirect         Path = "direct"
	PathChainOfThought Path = "cot"
	PathAgent          Path = "agent"
	PathRefusal        Path = "refusal"
	PathDefault        Path = "default"
)

// Options tune the per-question flow
type Options struct {
	Strategy        entity.Strategy
	AutoCoT         bool
	EnableRAG       bool
	TopK            int
	RAGContextChars int
	RefineContext   bool
	RefineThreshold int
	MaxInputTokens  int
}

// Answer is the outcome for one question
type Answer struct {
	Letter   string
	Path     Path
	Response string
	Agent    *agent.Result
}

// InferenceUsecase answers single questions
type InferenceUsecase struct {
	model   ModelClient
	agent   Agent
	kb      KnowledgeBase
	refiner Refiner
	opts    Options
}

// NewUsecase wires the inference flow. agent, kb and refiner are optional.
func NewUsecase(model ModelClient, reasoner Agent, kb KnowledgeBase, refiner Refiner, opts Options) *InferenceUsecase {
	return &InferenceUsecase{
		model:   model,
		agent:   reasoner,
		kb:      kb,
		refiner: refiner,
		opts:    opts,
	}
}

// Strategy is the configured default strategy
func (uc *InferenceUsecase) Strategy() entity.Strategy {
	return uc.opts.Strategy
}

// AnswerQuestion always settles on a letter of the question's alphabet.
// additional is supporting text used when the question carries none.
// The only error returned is ctx cancellation.
func (uc *InferenceUsecase) AnswerQuestion(ctx context.Context, q *entity.Question, additional string) (*Answer, error) {
	logger := ctxzap.Extract(ctx)

	passage := uc.resolveContext(ctx, q, additional)
	passage = uc.fitContext(ctx, q, passage)

	if uc.opts.Strategy == entity.StrategyAgent && uc.agent != nil {
		// a model failure inside the loop already settled on the default letter
		res, err := uc.agent.Answer(ctx, q, passage)
		if err == nil {
			return &Answer{Letter: res.Letter, Path: PathAgent, Agent: res}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error("agent failed, falling back to direct prompt", zap.Error(err))
	}

	chainOfThought := uc.opts.Strategy == entity.StrategyChainOfThought ||
		(uc.opts.AutoCoT && (q.HasContext() || additional != "" || uc.opts.EnableRAG))
	path := PathDirect
	if chainOfThought {
		path = PathChainOfThought
	}

	response, err := uc.model.Invoke(ctx, buildPrompt(q, passage, chainOfThought))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error("model call failed", zap.Error(err))
		return uc.fallback(ctx, q), nil
	}

	if strings.TrimSpace(response) == "" {
		logger.Warn("empty model response, checking choices for a refusal option")
		return uc.fallback(ctx, q), nil
	}

	return &Answer{
		Letter:   answer.NewExtractor(q.Letters()).Extract(response),
		Path:     path,
		Response: response,
	}, nil
}

// fallback prefers a refusal choice over the blind default
func (uc *InferenceUsecase) fallback(ctx context.Context, q *entity.Question) *Answer {
	if letter, ok := answer.FindRefusal(q.Choices); ok {
		ctxzap.Extract(ctx).Info("answered with refusal option", zap.String("letter", letter))
		return &Answer{Letter: letter, Path: PathRefusal}
	}
	return &Answer{Letter: answer.NewExtractor(q.Letters()).Default(), Path: PathDefault}
}

// resolveContext picks the passage: embedded context, then additional text,
// then knowledge-base retrieval on the bare question.
func (uc *InferenceUsecase) resolveContext(ctx context.Context, q *entity.Question, additional string) string {
	if q.HasContext() {
		return q.Context
	}
	if additional != "" {
		return additional
	}
	if !uc.opts.EnableRAG || uc.kb == nil {
		return ""
	}

	logger := ctxzap.Extract(ctx)
	chunks, err := uc.kb.Retrieve(ctx, q.QuestionText(), uc.opts.TopK, "")
	if err != nil {
		logger.Error("knowledge base retrieval failed", zap.Error(err))
		return ""
	}

	passage := retrieval.FormatContext(chunks, uc.opts.RAGContextChars)
	if passage == "" {
		logger.Warn("no context retrieved")
		return ""
	}
	logger.Info("retrieved context", zap.Int("chars", utf8.RuneCountInString(passage)))
	return passage
}

// fitContext refines an over-long passage when enabled, then enforces the
// input budget. Refinement failures fall through to truncation.
func (uc *InferenceUsecase) fitContext(ctx context.Context, q *entity.Question, passage string) string {
	logger := ctxzap.Extract(ctx)
	length := utf8.RuneCountInString(passage)

	if uc.opts.RefineContext && uc.refiner != nil && length > uc.opts.RefineThreshold {
		query := q.QuestionText() + "\n" + q.FormatChoices()
		refined, err := uc.refiner.Refine(ctx, query, passage)
		if err != nil {
			logger.Error("context refinement failed", zap.Error(err))
		} else {
			passage = refined
			length = utf8.RuneCountInString(passage)
		}
	}

	maxChars := int(float64(uc.opts.MaxInputTokens) * charsPerToken)
	if length > maxChars {
		logger.Warn("truncating context", zap.Int("from", length), zap.Int("to", maxChars))
		passage = truncate(passage, maxChars)
	}
	return passage
}
