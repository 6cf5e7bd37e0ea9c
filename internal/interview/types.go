package interview

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClassificationFailure marks a turn whose utterance could not be classified.
	ErrClassificationFailure = errors.New("classification failure")
	// ErrEvaluationFailure marks a question whose answer could not be scored.
	ErrEvaluationFailure = errors.New("evaluation failure")
)

// ResponseType is the closed set of classifier verdicts.
type ResponseType string

const (
	ResponseAnswer           ResponseType = "ANSWER"
	ResponseUncertain        ResponseType = "UNCERTAIN"
	ResponseRepeatRequest    ResponseType = "REPEAT_REQUEST"
	ResponsePreviousQuestion ResponseType = "PREVIOUS_QUESTION_REQUEST"

	// accepted from older prompts, treated as UNCERTAIN
	responseClarificationRequest ResponseType = "CLARIFICATION_REQUEST"
)

// ResponseTypes lists the values offered to the model.
var ResponseTypes = []ResponseType{
	ResponseAnswer,
	ResponseUncertain,
	ResponseRepeatRequest,
	ResponsePreviousQuestion,
}

// ParseResponseType accepts only the known values; anything else is an error.
func ParseResponseType(raw string) (ResponseType, error) {
	switch t := ResponseType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case ResponseAnswer, ResponseUncertain, ResponseRepeatRequest, ResponsePreviousQuestion:
		return t, nil
	case responseClarificationRequest:
		return ResponseUncertain, nil
	default:
		return "", fmt.Errorf("unknown response type %q", raw)
	}
}

// Classification is a validated classifier verdict for one utterance.
type Classification struct {
	Type    ResponseType `json:"response_type"`
	Message string       `json:"message"`
	Score   *float64     `json:"score,omitempty"`
	Passed  *bool        `json:"passed,omitempty"`
}

// Action tells the driver what happened on a turn.
type Action string

const (
	ActionNextQuestion     Action = "next_question"
	ActionStayOnQuestion   Action = "stay_on_question"
	ActionPreviousQuestion Action = "previous_question"
	ActionComplete         Action = "complete"
	ActionError            Action = "error"
)

// Answer is one recorded candidate answer.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Answers maps category name to the answers given in it.
type Answers map[string][]Answer

// Lookup returns the answer recorded for question in category.
func (a Answers) Lookup(category, question string) (string, bool) {
	for _, ans := range a[category] {
		if ans.Question == question {
			return ans.Answer, true
		}
	}
	return "", false
}

// Count is the number of recorded answers.
func (a Answers) Count() int {
	n := 0
	for _, list := range a {
		n += len(list)
	}
	return n
}

// Result is an inline score recorded during the session.
type Result struct {
	Passed bool    `json:"passed"`
	Score  float64 `json:"score"`
}

// TurnResult is the controller's reply to one utterance.
type TurnResult struct {
	Message      string            `json:"message"`
	Action       Action            `json:"action"`
	NextQuestion string            `json:"next_question,omitempty"`
	NoPrevious   bool              `json:"no_previous,omitempty"`
	Complete     bool              `json:"interview_complete"`
	Answers      Answers           `json:"collected_data,omitempty"`
	Results      map[string]Result `json:"results,omitempty"`
	TotalScore   float64           `json:"total_score,omitempty"`
	Err          error             `json:"-"`
}

// Evaluation is the scored verdict for one answer.
type Evaluation struct {
	Score    float64 `json:"score"`
	Passed   bool    `json:"passed"`
	Feedback string  `json:"feedback"`
}

// EvaluationRecord is one line of the final report, in catalog order.
type EvaluationRecord struct {
	ID             string      `json:"id"`
	Category       string      `json:"category"`
	Question       string      `json:"question"`
	ExpectedAnswer *string     `json:"expected_answer,omitempty"`
	Answer         string      `json:"answer"`
	Answered       bool        `json:"answered"`
	Evaluation     *Evaluation `json:"evaluation,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// Report is the final per-candidate report.
type Report struct {
	Vacancy      string             `json:"vacancy,omitempty"`
	SessionID    string             `json:"session_id,omitempty"`
	Records      []EvaluationRecord `json:"records"`
	Summary      string             `json:"summary"`
	Questions    int                `json:"questions"`
	Answered     int                `json:"answered"`
	Evaluated    int                `json:"evaluated"`
	Passed       int                `json:"passed"`
	Failed       int                `json:"failed_evaluations"`
	AverageScore float64            `json:"average_score"`
}
