package interview

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ai-hr/internal/catalog"
)

func TestStartGreetsWithFirstQuestion(t *testing.T) {
	c := NewController(newCatalog("Tell me about yourself"), &scriptedClassifier{}, "DC engineer", nil)

	res := c.Start()
	if !strings.HasPrefix(res.Message, "Welcome to the interview for the position 'DC engineer'! Let's begin.") {
		t.Fatalf("unexpected greeting: %q", res.Message)
	}
	if !strings.HasSuffix(res.Message, "Tell me about yourself") || res.NextQuestion != "Tell me about yourself" {
		t.Fatalf("greeting must end with the first question: %+v", res)
	}
}

func TestStartOnEmptyCatalogIsComplete(t *testing.T) {
	cl := &scriptedClassifier{}
	c := NewController(catalog.Build(nil), cl, "", nil)

	if res := c.Start(); !res.Complete || res.Action != ActionComplete {
		t.Fatalf("expected completion, got %+v", res)
	}
	if res := c.ProcessInput(context.Background(), "hello"); !res.Complete {
		t.Fatalf("expected completion, got %+v", res)
	}
	if cl.calls != 0 {
		t.Fatalf("expected no classifier calls, got %d", cl.calls)
	}
}

func TestSingleQuestionAnswerCompletes(t *testing.T) {
	cl := &scriptedClassifier{script: []*Classification{classification(ResponseAnswer, "Thank you for your answer.")}}
	c := NewController(newCatalog("Tell me about yourself"), cl, "v", nil)

	res := c.ProcessInput(context.Background(), "I build things")

	if c.Cursor() != 1 || !c.IsComplete() {
		t.Fatalf("expected cursor 1 and complete, got %d", c.Cursor())
	}
	if !res.Complete || res.Action != ActionComplete {
		t.Fatalf("expected completion turn, got %+v", res)
	}
	if !strings.Contains(res.Message, MessageLastQuestion) {
		t.Fatalf("expected completion notice, got %q", res.Message)
	}
	if got, _ := res.Answers.Lookup("general", "Tell me about yourself"); got != "I build things" {
		t.Fatalf("expected collected answer, got %+v", res.Answers)
	}
}

func TestRepeatAnswerPreviousScenario(t *testing.T) {
	cl := &scriptedClassifier{script: []*Classification{
		classification(ResponseRepeatRequest, "Sure, repeating: Q0"),
		classification(ResponseAnswer, "Thanks."),
		classification(ResponsePreviousQuestion, "Okay, let's go back to the previous question."),
	}}
	c := NewController(newCatalog("Q0", "Q1", "Q2"), cl, "v", nil)
	ctx := context.Background()

	res := c.ProcessInput(ctx, "can you repeat?")
	if c.Cursor() != 0 || res.Action != ActionStayOnQuestion || res.NextQuestion != "Q0" {
		t.Fatalf("turn 1: cursor %d, %+v", c.Cursor(), res)
	}

	res = c.ProcessInput(ctx, "my answer")
	if c.Cursor() != 1 || res.Action != ActionNextQuestion || res.NextQuestion != "Q1" {
		t.Fatalf("turn 2: cursor %d, %+v", c.Cursor(), res)
	}

	res = c.ProcessInput(ctx, "go back please")
	if c.Cursor() != 0 || res.Action != ActionPreviousQuestion || res.NextQuestion != "Q0" {
		t.Fatalf("turn 3: cursor %d, %+v", c.Cursor(), res)
	}

	if cl.calls != 3 {
		t.Fatalf("expected 3 classifier calls, got %d", cl.calls)
	}
}

func TestRepeatAndUncertainDoNotMutate(t *testing.T) {
	for _, rt := range []ResponseType{ResponseRepeatRequest, ResponseUncertain} {
		t.Run(string(rt), func(t *testing.T) {
			cl := &scriptedClassifier{script: []*Classification{
				classification(ResponseAnswer, "Thanks."),
				classification(rt, "message"),
			}}
			c := NewController(newCatalog("Q0", "Q1"), cl, "v", nil)
			c.ProcessInput(context.Background(), "answer")

			cursor, answers, results := c.Cursor(), c.Answers(), c.Results()
			res := c.ProcessInput(context.Background(), "hm")

			if res.Action != ActionStayOnQuestion {
				t.Fatalf("unexpected action %s", res.Action)
			}
			if c.Cursor() != cursor || !reflect.DeepEqual(c.Answers(), answers) || !reflect.DeepEqual(c.Results(), results) {
				t.Fatal("state changed on a non-answer turn")
			}
		})
	}
}

func TestUncertainHasNoNextQuestion(t *testing.T) {
	cl := &scriptedClassifier{script: []*Classification{classification(ResponseUncertain, "Let me clarify: Q0")}}
	c := NewController(newCatalog("Q0"), cl, "v", nil)

	res := c.ProcessInput(context.Background(), "what do you mean?")
	if res.NextQuestion != "" || res.Message != "Let me clarify: Q0" {
		t.Fatalf("unexpected uncertain turn: %+v", res)
	}
}

func TestPreviousAtFirstQuestion(t *testing.T) {
	cl := &scriptedClassifier{script: []*Classification{classification(ResponsePreviousQuestion, "Okay.")}}
	c := NewController(newCatalog("Q0", "Q1"), cl, "v", nil)

	res := c.ProcessInput(context.Background(), "back")

	if !res.NoPrevious || res.Message != MessageFirstQuestion || res.NextQuestion != "Q0" {
		t.Fatalf("unexpected turn: %+v", res)
	}
	if res.Action != ActionStayOnQuestion || c.Cursor() != 0 {
		t.Fatalf("cursor must stay at 0, got %d (%s)", c.Cursor(), res.Action)
	}
}

func TestNoClassificationAfterCompletion(t *testing.T) {
	cl := &scriptedClassifier{}
	c := NewController(newCatalog("Q0", "Q1"), cl, "v", nil)
	ctx := context.Background()

	c.ProcessInput(ctx, "a0")
	c.ProcessInput(ctx, "a1")
	if !c.IsComplete() || cl.calls != 2 {
		t.Fatalf("expected completion after 2 calls, got %d", cl.calls)
	}

	for _, input := range []string{"hello", "go back", "repeat", ""} {
		res := c.ProcessInput(ctx, input)
		if !res.Complete || res.Message != MessageComplete {
			t.Fatalf("expected fixed completion response, got %+v", res)
		}
		if len(res.Answers["general"]) != 2 {
			t.Fatalf("completion must carry collected data: %+v", res.Answers)
		}
	}

	if cl.calls != 2 {
		t.Fatalf("classifier called after completion: %d calls", cl.calls)
	}
}

func TestClassificationFailureLeavesStateUntouched(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cl := &scriptedClassifier{}
	c := NewController(newCatalog("Q0", "Q1"), cl, "v", zap.New(core))

	c.ProcessInput(context.Background(), "a0")
	cursor, answers := c.Cursor(), c.Answers()

	cl.err = errors.Join(ErrClassificationFailure, errors.New("boom"))
	res := c.ProcessInput(context.Background(), "a1")

	if res.Action != ActionError || res.Message != MessageInternalError || res.Err == nil {
		t.Fatalf("expected error turn, got %+v", res)
	}
	if res.NextQuestion != "Q1" {
		t.Fatalf("error turn must restate the current question, got %q", res.NextQuestion)
	}
	if c.Cursor() != cursor || !reflect.DeepEqual(c.Answers(), answers) {
		t.Fatal("state changed after classification failure")
	}

	entries := logs.FilterMessage("classification failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["question_id"]; got != "general_1" {
		t.Fatalf("unexpected question_id field: %v", got)
	}
}

func TestInlineScoringMarksResult(t *testing.T) {
	cl := &scriptedClassifier{script: []*Classification{
		{Type: ResponseAnswer, Message: "Thanks.", Score: ptr(6.0), Passed: ptr(true)},
		{Type: ResponsePreviousQuestion, Message: "Okay."},
		{Type: ResponseAnswer, Message: "Thanks.", Score: ptr(9.0), Passed: ptr(true)},
	}}
	c := NewController(newCatalog("Q0", "Q1"), cl, "v", nil)
	ctx := context.Background()

	c.ProcessInput(ctx, "first")
	c.ProcessInput(ctx, "back")
	c.ProcessInput(ctx, "better")

	if got := c.TotalScore(); got != 9 {
		t.Fatalf("re-answering must replace the score, got total %v", got)
	}
	if got, _ := c.Answers().Lookup("general", "Q0"); got != "better" {
		t.Fatalf("expected overwritten answer, got %q", got)
	}
}

func TestControllerWithClassifierEndToEnd(t *testing.T) {
	completer := &stubCompleter{respond: toolArgs(map[string]any{
		"response_type": "ANSWER",
		"message":       "Thank you for your answer.",
	})}
	c := NewController(newCatalog("Tell me about yourself"), NewClassifier(completer, nil, ClassifierConfig{}), "v", nil)

	res := c.ProcessInput(context.Background(), "I am a developer")
	if !res.Complete {
		t.Fatalf("expected completion, got %+v", res)
	}

	c.ProcessInput(context.Background(), "anything")
	if completer.Calls() != 1 {
		t.Fatalf("expected a single completion call, got %d", completer.Calls())
	}
}
