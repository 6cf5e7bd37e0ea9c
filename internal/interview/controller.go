package interview

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/catalog"
)

const (
	MessageLastQuestion  = "That was the last question."
	MessageFirstQuestion = "This is the very first question, there is nowhere to go back."
	MessageComplete      = "The interview is complete. Thank you!"
	MessageInternalError = "An internal error occurred, please try again."
)

type classifier interface {
	Classify(ctx context.Context, q catalog.Question, utterance, vacancy string) (*Classification, error)
}

// Controller drives one interview session. Each session needs its own
// Controller; it is not safe for concurrent use.
type Controller struct {
	catalog    *catalog.Catalog
	state      *State
	classifier classifier
	vacancy    string
	logger     *zap.Logger
}

func NewController(cat *catalog.Catalog, classifier classifier, vacancy string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		catalog:    cat,
		state:      NewState(cat),
		classifier: classifier,
		vacancy:    vacancy,
		logger:     logger,
	}
}

// Start returns the greeting with the first question.
func (c *Controller) Start() TurnResult {
	q, ok := c.state.Current()
	if !ok {
		return c.completed(MessageComplete)
	}

	greeting := "Welcome to the interview! Let's begin."
	if c.vacancy != "" {
		greeting = fmt.Sprintf("Welcome to the interview for the position '%s'! Let's begin.", c.vacancy)
	}

	return TurnResult{
		Message:      greeting + "\n\n" + q.Text,
		Action:       ActionNextQuestion,
		NextQuestion: q.Text,
	}
}

// ProcessInput handles one candidate utterance. It makes at most one
// classifier call and none once the interview is complete.
func (c *Controller) ProcessInput(ctx context.Context, utterance string) TurnResult {
	q, ok := c.state.Current()
	if !ok {
		return c.completed(MessageComplete)
	}

	cls, err := c.classifier.Classify(ctx, q, utterance, c.vacancy)
	if err != nil {
		c.logger.Warn("classification failed",
			zap.String("question_id", q.ID),
			zap.Int("cursor", c.state.Cursor()),
			zap.Error(err),
		)
		return c.failed(q, err)
	}

	c.logger.Debug("turn classified",
		zap.String("question_id", q.ID),
		zap.String("response_type", string(cls.Type)),
	)

	switch cls.Type {
	case ResponseAnswer:
		c.state.RecordAnswer(q.Category, q.Text, utterance)
		if cls.Score != nil && cls.Passed != nil {
			c.state.MarkResult(q.ID, *cls.Passed, *cls.Score)
		}
		c.state.Advance()

		next, ok := c.state.Current()
		if !ok {
			c.logger.Info("interview completed",
				zap.Int("questions", c.catalog.Size()),
				zap.Int("answers", c.state.answers.Count()),
			)
			return c.completed(cls.Message + "\n\n" + MessageLastQuestion)
		}
		return TurnResult{
			Message:      cls.Message,
			Action:       ActionNextQuestion,
			NextQuestion: next.Text,
		}

	case ResponseRepeatRequest:
		return TurnResult{
			Message:      cls.Message,
			Action:       ActionStayOnQuestion,
			NextQuestion: q.Text,
		}

	case ResponseUncertain:
		return TurnResult{
			Message: cls.Message,
			Action:  ActionStayOnQuestion,
		}

	case ResponsePreviousQuestion:
		if !c.state.Retreat() {
			return TurnResult{
				Message:      MessageFirstQuestion,
				Action:       ActionStayOnQuestion,
				NextQuestion: q.Text,
				NoPrevious:   true,
			}
		}
		prev, _ := c.state.Current()
		return TurnResult{
			Message:      cls.Message,
			Action:       ActionPreviousQuestion,
			NextQuestion: prev.Text,
		}

	default:
		return c.failed(q, fmt.Errorf("%w: unhandled response type %q", ErrClassificationFailure, cls.Type))
	}
}

// Current returns the question awaiting an answer.
func (c *Controller) Current() (catalog.Question, bool) {
	return c.state.Current()
}

func (c *Controller) IsComplete() bool {
	return c.state.IsComplete()
}

func (c *Controller) Cursor() int {
	return c.state.Cursor()
}

// Answers returns a copy of the answers collected so far.
func (c *Controller) Answers() Answers {
	return c.state.Answers()
}

func (c *Controller) Results() map[string]Result {
	return c.state.Results()
}

func (c *Controller) TotalScore() float64 {
	return c.state.TotalScore()
}

func (c *Controller) completed(message string) TurnResult {
	return TurnResult{
		Message:    message,
		Action:     ActionComplete,
		Complete:   true,
		Answers:    c.state.Answers(),
		Results:    c.state.Results(),
		TotalScore: c.state.TotalScore(),
	}
}

func (c *Controller) failed(q catalog.Question, err error) TurnResult {
	return TurnResult{
		Message:      MessageInternalError,
		Action:       ActionError,
		NextQuestion: q.Text,
		Err:          err,
	}
}
