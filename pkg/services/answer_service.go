package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/apperrors"
	"github.com/paceline-ai/paceline-engine/pkg/datasource"
	"github.com/paceline-ai/paceline-engine/pkg/format"
	"github.com/paceline-ai/paceline-engine/pkg/llm"
	"github.com/paceline-ai/paceline-engine/pkg/observability"
	"github.com/paceline-ai/paceline-engine/pkg/prompts"
	sqlgate "github.com/paceline-ai/paceline-engine/pkg/sql"
)

// Answer is the successful outcome of one question: the executed query and
// the display-ready rows, in store order.
type Answer struct {
	Query string
	Rows  []format.FormattedRow
}

// QueryExecutor runs one generated statement against the store.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryResult, error)
}

// AnswerService turns a natural-language question into formatted rows.
type AnswerService interface {
	// AnswerQuestion runs the full pipeline for one question. Failures are
	// returned as a *PipelineError tagged with the failing stage's kind.
	AnswerQuestion(ctx context.Context, question string) (*Answer, error)
}

// Config bounds the pipeline stages.
type Config struct {
	GenerationTimeout time.Duration
	ExecutionTimeout  time.Duration
	MaxRows           int
	Temperature       float64
}

type answerService struct {
	llmClient llm.LLMClient
	executor  QueryExecutor
	cfg       Config
	logger    *zap.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(llmClient llm.LLMClient, executor QueryExecutor, cfg Config, logger *zap.Logger) AnswerService {
	return &answerService{
		llmClient: llmClient,
		executor:  executor,
		cfg:       cfg,
		logger:    logger.Named("answer-service"),
	}
}

var _ AnswerService = (*answerService)(nil)

func (s *answerService) AnswerQuestion(ctx context.Context, question string) (*Answer, error) {
	answer, err := s.answer(ctx, question)
	if err != nil {
		var pipeErr *PipelineError
		if errors.As(err, &pipeErr) {
			observability.RecordQuestion(string(pipeErr.Kind))
		} else {
			observability.RecordQuestion("internal_error")
		}
		return nil, err
	}
	observability.RecordQuestion("ok")
	return answer, nil
}

func (s *answerService) answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, newPipelineError(ValidationError, "no question provided", apperrors.ErrEmptyQuestion)
	}

	// A question carrying a SQL injection fingerprint is an attempt to steer
	// the generator; reject it before it reaches the prompt.
	if result := sqlgate.CheckQuestionForInjection(question); result != nil {
		s.logger.Warn("question rejected by injection check",
			zap.String("fingerprint", result.Fingerprint))
		return nil, newPipelineError(ValidationError, "question rejected by injection check", nil)
	}

	// One inference attempt per request, under a bounded deadline.
	prompt := prompts.BuildSQLGenerationPrompt(question)
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	genStart := time.Now()
	raw, err := s.llmClient.Generate(genCtx, prompt, prompts.BuildSQLGenerationSystemMessage(), s.cfg.Temperature)
	observability.ObserveStage("generation", time.Since(genStart))
	if err != nil {
		return nil, newPipelineError(GenerationFailure, "inference backend failed", err)
	}

	candidate := sqlgate.ExtractQuery(raw)
	if candidate.Rejected {
		return nil, newPipelineError(RejectedQuery, candidate.Reason, nil)
	}

	validated := sqlgate.ValidateAndNormalize(candidate.Text)
	if validated.Error != nil {
		return nil, newPipelineError(RejectedQuery, "generated query failed validation", validated.Error)
	}
	if err := sqlgate.EnsureReadOnly(validated.NormalizedSQL); err != nil {
		return nil, newPipelineError(RejectedQuery, "generated query is not read-only", err)
	}

	// The generator's output is otherwise opaque; log the statement before
	// running it so failed executions can be diagnosed.
	s.logger.Info("executing generated query",
		zap.String("question", question),
		zap.String("sql", validated.NormalizedSQL))

	execCtx, cancel := context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
	defer cancel()

	execStart := time.Now()
	result, err := s.executor.ExecuteQuery(execCtx, validated.NormalizedSQL, s.cfg.MaxRows)
	observability.ObserveStage("execution", time.Since(execStart))
	if err != nil {
		if errors.Is(err, apperrors.ErrNoResult) {
			return nil, newPipelineError(NoResult, "query produced no result set", err)
		}
		return nil, newPipelineError(ExecutionError, "query execution failed", err)
	}

	return &Answer{
		Query: validated.NormalizedSQL,
		Rows:  format.Rows(result),
	}, nil
}
