package interview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/catalog"
	"github.com/spigell/ai-hr/internal/utils"
)

//go:embed prompts/classify.md
var classifyTemplate string

//go:embed prompts/classify_scoring.md
var classifyScoringTemplate string

const (
	classifyToolName      = "process_response"
	classifyTemperature   = 0.1
	DefaultCallTimeout    = 60 * time.Second
	defaultMaxLogLength   = 200
	minScore, maxScore    = 0.0, 10.0
	criteriaWithRubric    = "Criteria for an ideal answer: %s"
	criteriaWithoutRubric = "There are no strict criteria. Judge the answer on its logic and completeness."
)

// ClassifierConfig tunes a Classifier.
type ClassifierConfig struct {
	// CallTimeout bounds a single LLM round-trip. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	// InlineScoring asks the model for score and passed on every ANSWER.
	InlineScoring bool
	MaxLogLength  int
}

// Classifier turns a candidate utterance into a validated Classification.
type Classifier struct {
	completer ai.Completer
	logger    *zap.Logger
	cfg       ClassifierConfig
}

type classificationArgs struct {
	ResponseType string   `mapstructure:"response_type"`
	Message      string   `mapstructure:"message"`
	Score        *float64 `mapstructure:"score"`
	Passed       *bool    `mapstructure:"passed"`
}

func NewClassifier(completer ai.Completer, logger *zap.Logger, cfg ClassifierConfig) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	return &Classifier{completer: completer, logger: logger, cfg: cfg}
}

// InlineScoring reports whether ANSWER verdicts carry a score.
func (c *Classifier) InlineScoring() bool {
	return c.cfg.InlineScoring
}

// Classify makes exactly one completion call. Every failure wraps
// ErrClassificationFailure.
func (c *Classifier) Classify(ctx context.Context, q catalog.Question, utterance, vacancy string) (*Classification, error) {
	if c.completer == nil {
		return nil, fmt.Errorf("%w: completer is not configured", ErrClassificationFailure)
	}

	req := &ai.Request{
		System:      c.buildSystemPrompt(q, vacancy),
		User:        fmt.Sprintf("Candidate reply to classify: <<< %s >>>", utterance),
		Tool:        c.tool(),
		Temperature: ai.Temperature(classifyTemperature),
	}

	c.logger.Debug("classification request",
		zap.String("question_id", q.ID),
		zap.Int("utterance_length", utf8.RuneCountInString(utterance)),
		zap.String("utterance_preview", utils.TruncateForLog(utterance, c.cfg.MaxLogLength)),
	)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	resp, err := c.completer.Complete(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s: %w", ErrClassificationFailure, c.cfg.CallTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailure, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrClassificationFailure)
	}

	classification, err := c.parse(resp.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailure, err)
	}

	c.logger.Debug("classification response",
		zap.String("question_id", q.ID),
		zap.String("response_type", string(classification.Type)),
		zap.String("message_preview", utils.TruncateForLog(classification.Message, c.cfg.MaxLogLength)),
	)

	return classification, nil
}

func (c *Classifier) parse(arguments map[string]any) (*Classification, error) {
	if arguments == nil {
		return nil, errors.New("tool call carried no arguments")
	}

	var args classificationArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}

	responseType, err := ParseResponseType(args.ResponseType)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(args.Message)
	if message == "" {
		return nil, errors.New("message is empty")
	}

	out := &Classification{Type: responseType, Message: message}

	// Scores only matter for an inline-scored ANSWER; stray ones are dropped.
	if c.cfg.InlineScoring && responseType == ResponseAnswer {
		if args.Score == nil || args.Passed == nil {
			return nil, errors.New("score and passed are required for ANSWER")
		}
		if err := validateScore(*args.Score); err != nil {
			return nil, err
		}
		out.Score = args.Score
		out.Passed = args.Passed
	}

	return out, nil
}

func (c *Classifier) tool() *ai.Tool {
	properties := map[string]*ai.Schema{
		"response_type": {
			Type:        ai.TypeString,
			Description: "Classification of the candidate's reply.",
			Enum:        responseTypeNames(),
		},
		"message": {
			Type:        ai.TypeString,
			Description: "Reply to the candidate.",
		},
	}

	if c.cfg.InlineScoring {
		minimum, maximum := ai.Bounds(minScore, maxScore)
		properties["score"] = &ai.Schema{
			Type:        ai.TypeNumber,
			Description: "Answer score from 0 to 10. Only for ANSWER.",
			Minimum:     minimum,
			Maximum:     maximum,
			Nullable:    true,
		}
		properties["passed"] = &ai.Schema{
			Type:        ai.TypeBoolean,
			Description: "Whether the answer is acceptable. Only for ANSWER.",
			Nullable:    true,
		}
	}

	return &ai.Tool{
		Name:        classifyToolName,
		Description: "Classifies the candidate's reply.",
		Parameters: &ai.Schema{
			Type:       ai.TypeObject,
			Properties: properties,
			Required:   []string{"response_type", "message"},
		},
	}
}

func (c *Classifier) buildSystemPrompt(q catalog.Question, vacancy string) string {
	scoring := ""
	if c.cfg.InlineScoring {
		scoring = strings.ReplaceAll(classifyScoringTemplate, "{{CRITERIA}}", criteriaFor(q.ExpectedAnswer))
	}

	prompt := strings.ReplaceAll(classifyTemplate, "{{VACANCY}}", vacancy)
	prompt = strings.ReplaceAll(prompt, "{{QUESTION}}", q.Text)
	prompt = strings.ReplaceAll(prompt, "{{SCORING_RULES}}", scoring)
	return prompt
}

func criteriaFor(expected *string) string {
	if expected != nil && strings.TrimSpace(*expected) != "" {
		return fmt.Sprintf(criteriaWithRubric, strings.TrimSpace(*expected))
	}
	return criteriaWithoutRubric
}

func responseTypeNames() []string {
	names := make([]string, 0, len(ResponseTypes))
	for _, t := range ResponseTypes {
		names = append(names, string(t))
	}
	return names
}

func validateScore(score float64) error {
	if math.IsNaN(score) || score < minScore || score > maxScore {
		return fmt.Errorf("score %v is outside [%v, %v]", score, minScore, maxScore)
	}
	return nil
}

// decodeArgs maps tool arguments onto a typed struct without type coercion.
func decodeArgs(arguments map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(arguments); err != nil {
		return fmt.Errorf("decode tool arguments: %w", err)
	}
	return nil
}
