package interview

import (
	"context"
	"sync"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/catalog"
)

type stubCompleter struct {
	mu       sync.Mutex
	calls    int
	requests []*ai.Request
	respond  func(ctx context.Context, req *ai.Request) (*ai.Response, error)
}

func (s *stubCompleter) Complete(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(ctx, req)
}

func (s *stubCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func toolArgs(args map[string]any) func(context.Context, *ai.Request) (*ai.Response, error) {
	return func(_ context.Context, req *ai.Request) (*ai.Response, error) {
		return &ai.Response{ToolName: req.Tool.Name, Arguments: args}, nil
	}
}

type scriptedClassifier struct {
	calls   int
	script  []*Classification
	err     error
	lastQID string
}

func (s *scriptedClassifier) Classify(_ context.Context, q catalog.Question, _, _ string) (*Classification, error) {
	s.calls++
	s.lastQID = q.ID
	if s.err != nil {
		return nil, s.err
	}
	if len(s.script) == 0 {
		return &Classification{Type: ResponseAnswer, Message: "Thank you for your answer."}, nil
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next, nil
}

func classification(t ResponseType, message string) *Classification {
	return &Classification{Type: t, Message: message}
}

func newCatalog(questions ...string) *catalog.Catalog {
	items := make([]catalog.Item, 0, len(questions))
	for _, q := range questions {
		items = append(items, catalog.Item{Question: q})
	}
	return catalog.Build(catalog.QuestionSet{{Name: "general", Questions: items}})
}

func ptr[T any](v T) *T { return &v }
