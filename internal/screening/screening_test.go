package screening

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ai-hr/internal/ai"
)

type fakeCompleter struct {
	mu      sync.Mutex
	calls   int
	system  string
	respond func(user string) (*ai.Response, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req *ai.Request) (*ai.Response, error) {
	f.mu.Lock()
	f.calls++
	f.system = req.System
	f.mu.Unlock()
	return f.respond(req.User)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setup(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	resumes := filepath.Join(root, "cv")
	if err := os.Mkdir(resumes, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	vacancy := filepath.Join(root, "vacancy.md")
	writeFile(t, vacancy, "| Название | DC engineer |\n| Requirements | UPS, cooling |\n")
	return resumes, vacancy
}

func TestRunRecordsPerResumeVerdicts(t *testing.T) {
	resumes, vacancy := setup(t)
	writeFile(t, filepath.Join(resumes, "good.txt"), "Ivan Petrov. Ten years with UPS and cooling.")
	writeFile(t, filepath.Join(resumes, "weak.txt"), "Junior web designer.")
	writeFile(t, filepath.Join(resumes, "scan.pdf"), "%PDF-1.4")
	writeFile(t, filepath.Join(resumes, "flaky.txt"), "Network engineer.")
	if err := os.Mkdir(filepath.Join(resumes, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	completer := &fakeCompleter{respond: func(user string) (*ai.Response, error) {
		switch {
		case strings.Contains(user, "Ivan"):
			return &ai.Response{Arguments: map[string]any{"answer": true, "comment": "Strong match.", "name": "Ivan Petrov"}}, nil
		case strings.Contains(user, "Network"):
			return nil, errors.New("rate limited")
		default:
			return &ai.Response{Arguments: map[string]any{"answer": false, "comment": "No data center experience.", "name": nil}}, nil
		}
	}}

	core, logs := observer.New(zapcore.InfoLevel)
	result, err := NewScreener(completer, zap.New(core), 3).Run(context.Background(), resumes, vacancy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Vacancy != "DC engineer" {
		t.Fatalf("unexpected vacancy %q", result.Vacancy)
	}
	if len(result.Verdicts) != 4 {
		t.Fatalf("expected 4 verdicts, got %d", len(result.Verdicts))
	}

	good := result.Verdicts[filepath.Join(resumes, "good.txt")]
	if !good.Answer || good.Name == nil || *good.Name != "Ivan Petrov" {
		t.Fatalf("unexpected verdict: %+v", good)
	}
	weak := result.Verdicts[filepath.Join(resumes, "weak.txt")]
	if weak.Answer || weak.Name != nil || weak.Error != "" {
		t.Fatalf("unexpected verdict: %+v", weak)
	}
	if v := result.Verdicts[filepath.Join(resumes, "scan.pdf")]; v.Error == "" {
		t.Fatal("unsupported file must be recorded as an error")
	}
	if v := result.Verdicts[filepath.Join(resumes, "flaky.txt")]; !strings.Contains(v.Error, "rate limited") {
		t.Fatalf("expected provider error to be recorded, got %+v", v)
	}

	want := Summary{Initial: 4, Approved: 1, Rejected: 1, Failed: 2}
	if result.Summary != want {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	if approved := result.Approved(); len(approved) != 1 || filepath.Base(approved[0]) != "good.txt" {
		t.Fatalf("unexpected approved list %v", approved)
	}

	if completer.calls != 3 {
		t.Fatalf("unsupported file must not reach the model, got %d calls", completer.calls)
	}
	if !strings.Contains(completer.system, "Requirements: UPS, cooling") {
		t.Fatalf("vacancy must be rendered into the prompt:\n%s", completer.system)
	}
	if logs.FilterMessage("resume screening failed").Len() != 2 {
		t.Fatalf("expected two failure warnings, got %d", logs.FilterMessage("resume screening failed").Len())
	}
}

func TestRunSetupErrors(t *testing.T) {
	resumes, vacancy := setup(t)
	completer := &fakeCompleter{respond: func(string) (*ai.Response, error) { return nil, nil }}
	s := NewScreener(completer, nil, 1)

	if _, err := s.Run(context.Background(), filepath.Join(resumes, "missing"), vacancy); err == nil {
		t.Fatal("expected error for missing folder")
	}
	if _, err := s.Run(context.Background(), resumes, vacancy); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty folder error, got %v", err)
	}

	writeFile(t, filepath.Join(resumes, "cv.txt"), "text")
	if _, err := s.Run(context.Background(), resumes, filepath.Join(resumes, "nope.md")); err == nil {
		t.Fatal("expected error for missing vacancy file")
	}
	if _, err := s.Run(context.Background(), vacancy, vacancy); err == nil {
		t.Fatal("expected error when resumes path is a file")
	}
	if completer.calls != 0 {
		t.Fatalf("no model calls expected, got %d", completer.calls)
	}
}

func TestScreenRejectsMissingAnswer(t *testing.T) {
	resumes, vacancy := setup(t)
	writeFile(t, filepath.Join(resumes, "cv.txt"), "text")

	completer := &fakeCompleter{respond: func(string) (*ai.Response, error) {
		return &ai.Response{Arguments: map[string]any{"comment": "maybe"}}, nil
	}}

	result, err := NewScreener(completer, nil, 1).Run(context.Background(), resumes, vacancy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := result.Verdicts[filepath.Join(resumes, "cv.txt")]; v.Error == "" {
		t.Fatalf("expected error verdict, got %+v", v)
	}
}
