package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/catalog"
	"github.com/spigell/ai-hr/internal/utils"
)

//go:embed prompts/evaluate.md
var evaluateTemplate string

//go:embed prompts/summary.md
var summaryTemplate string

const (
	evaluateToolName   = "evaluate_answer"
	summaryTemperature = 0.2

	NotAnswered         = "not answered"
	MessageNoFeedback   = "A final summary cannot be produced because no feedback was received."
	MessageSummaryError = "Failed to generate the final summary."
	inlineFeedback      = "scored during the interview"
)

// EvaluatorConfig tunes an Evaluator.
type EvaluatorConfig struct {
	CallTimeout time.Duration
	// Concurrency limits parallel evaluation calls; 1 or less is sequential.
	Concurrency  int
	MaxLogLength int
}

// Evaluator scores a finished interview question by question.
type Evaluator struct {
	completer ai.Completer
	logger    *zap.Logger
	cfg       EvaluatorConfig
}

type evaluationArgs struct {
	Score    *float64 `mapstructure:"score"`
	Passed   *bool    `mapstructure:"passed"`
	Feedback string   `mapstructure:"feedback"`
}

func NewEvaluator(completer ai.Completer, logger *zap.Logger, cfg EvaluatorConfig) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	return &Evaluator{completer: completer, logger: logger, cfg: cfg}
}

// Evaluate returns one record per catalog question in catalog order.
// Unanswered questions are scored 0 without an LLM call; failed calls
// become records with Error set.
func (e *Evaluator) Evaluate(ctx context.Context, answers Answers, cat *catalog.Catalog, vacancy string) []EvaluationRecord {
	questions := cat.Questions()
	records := make([]EvaluationRecord, len(questions))

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)

	for i, q := range questions {
		record := EvaluationRecord{
			ID:             q.ID,
			Category:       q.Category,
			Question:       q.Text,
			ExpectedAnswer: q.ExpectedAnswer,
		}

		answer, ok := answers.Lookup(q.Category, q.Text)
		if !ok {
			e.logger.Debug("question skipped", zap.String("question_id", q.ID))
			record.Answer = NotAnswered
			record.Evaluation = &Evaluation{Score: 0, Passed: false, Feedback: NotAnswered}
			records[i] = record
			continue
		}

		record.Answer = answer
		record.Answered = true

		g.Go(func() error {
			evaluation, err := e.evaluateOne(ctx, q, answer, vacancy)
			if err != nil {
				e.logger.Warn("answer evaluation failed",
					zap.String("question_id", q.ID),
					zap.Error(err),
				)
				record.Error = err.Error()
			} else {
				record.Evaluation = evaluation
			}
			records[i] = record
			return nil
		})
	}

	_ = g.Wait()

	e.logger.Info("evaluation completed",
		zap.Int("questions", len(records)),
		zap.Int("answered", answers.Count()),
	)

	return records
}

func (e *Evaluator) evaluateOne(ctx context.Context, q catalog.Question, answer, vacancy string) (*Evaluation, error) {
	if e.completer == nil {
		return nil, fmt.Errorf("%w: completer is not configured", ErrEvaluationFailure)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationFailure, err)
	}

	system := strings.ReplaceAll(evaluateTemplate, "{{VACANCY}}", vacancy)
	system = strings.ReplaceAll(system, "{{CRITERIA}}", criteriaFor(q.ExpectedAnswer))

	minimum, maximum := ai.Bounds(minScore, maxScore)
	req := &ai.Request{
		System: system,
		User:   fmt.Sprintf("Question: %q\nCandidate answer: <<< %s >>>", q.Text, answer),
		Tool: &ai.Tool{
			Name:        evaluateToolName,
			Description: "Evaluates the candidate's answer.",
			Parameters: &ai.Schema{
				Type: ai.TypeObject,
				Properties: map[string]*ai.Schema{
					"score":    {Type: ai.TypeNumber, Description: "Score from 0 to 10.", Minimum: minimum, Maximum: maximum},
					"passed":   {Type: ai.TypeBoolean, Description: "Whether the answer is acceptable."},
					"feedback": {Type: ai.TypeString, Description: "Short justification of the score."},
				},
				Required: []string{"score", "passed", "feedback"},
			},
		},
	}

	e.logger.Debug("evaluation request",
		zap.String("question_id", q.ID),
		zap.String("answer_preview", utils.TruncateForLog(answer, e.cfg.MaxLogLength)),
	)

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	resp, err := e.completer.Complete(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationFailure, err)
	}
	if resp == nil || resp.Arguments == nil {
		return nil, fmt.Errorf("%w: tool call carried no arguments", ErrEvaluationFailure)
	}

	var args evaluationArgs
	if err := decodeArgs(resp.Arguments, &args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationFailure, err)
	}
	if args.Score == nil || args.Passed == nil {
		return nil, fmt.Errorf("%w: score and passed are required", ErrEvaluationFailure)
	}
	if err := validateScore(*args.Score); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationFailure, err)
	}

	return &Evaluation{
		Score:    *args.Score,
		Passed:   *args.Passed,
		Feedback: strings.TrimSpace(args.Feedback),
	}, nil
}

// Summarize condenses the feedback of answered questions into a few
// sentences. Inline scores carry no feedback and are skipped. It never
// fails; fixed messages stand in for a summary.
func (e *Evaluator) Summarize(ctx context.Context, records []EvaluationRecord, vacancy string) string {
	var feedbacks []string
	for _, r := range records {
		if !r.Answered || r.Evaluation == nil {
			continue
		}
		if r.Evaluation.Feedback == "" || r.Evaluation.Feedback == inlineFeedback {
			continue
		}
		feedbacks = append(feedbacks, r.Evaluation.Feedback)
	}
	if len(feedbacks) == 0 {
		return MessageNoFeedback
	}
	if e.completer == nil {
		return MessageSummaryError
	}

	system := strings.ReplaceAll(summaryTemplate, "{{VACANCY}}", vacancy)
	system = strings.ReplaceAll(system, "{{FEEDBACKS}}", strings.Join(feedbacks, "\n- "))

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	resp, err := e.completer.Complete(callCtx, &ai.Request{
		System:      system,
		User:        "Write the summary.",
		Temperature: ai.Temperature(summaryTemperature),
	})
	if err != nil {
		e.logger.Warn("summary generation failed", zap.Error(err))
		return MessageSummaryError
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		e.logger.Warn("summary generation failed", zap.Error(errors.New("empty summary")))
		return MessageSummaryError
	}

	return strings.TrimSpace(resp.Text)
}

// RecordsFromResults builds report records from inline scores collected
// during the session, without any LLM call.
func RecordsFromResults(cat *catalog.Catalog, answers Answers, results map[string]Result) []EvaluationRecord {
	questions := cat.Questions()
	records := make([]EvaluationRecord, 0, len(questions))

	for _, q := range questions {
		record := EvaluationRecord{
			ID:             q.ID,
			Category:       q.Category,
			Question:       q.Text,
			ExpectedAnswer: q.ExpectedAnswer,
		}

		answer, ok := answers.Lookup(q.Category, q.Text)
		switch {
		case !ok:
			record.Answer = NotAnswered
			record.Evaluation = &Evaluation{Feedback: NotAnswered}
		default:
			record.Answer = answer
			record.Answered = true
			if r, scored := results[q.ID]; scored {
				record.Evaluation = &Evaluation{Score: r.Score, Passed: r.Passed, Feedback: inlineFeedback}
			} else {
				record.Error = fmt.Errorf("%w: no inline score recorded", ErrEvaluationFailure).Error()
			}
		}
		records = append(records, record)
	}

	return records
}

// BuildReport computes totals over records. Unanswered questions count as
// evaluated with score 0; records with an error are excluded from the average.
func BuildReport(records []EvaluationRecord, summary string) *Report {
	report := &Report{
		Records:   records,
		Summary:   summary,
		Questions: len(records),
	}

	total := 0.0
	for _, r := range records {
		if r.Answered {
			report.Answered++
		}
		if r.Error != "" {
			report.Failed++
		}
		if r.Evaluation == nil {
			continue
		}
		report.Evaluated++
		total += r.Evaluation.Score
		if r.Evaluation.Passed {
			report.Passed++
		}
	}

	if report.Evaluated > 0 {
		report.AverageScore = total / float64(report.Evaluated)
	}
	if report.Records == nil {
		report.Records = []EvaluationRecord{}
	}

	return report
}
