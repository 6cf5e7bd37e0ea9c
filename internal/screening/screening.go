package screening

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/extractor"
	"github.com/spigell/ai-hr/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	toolName            = "screen_resume"
	temperature         = 0.3
	defaultMaxLogLength = 200
)

// Verdict is the screening outcome for one résumé. Error is set instead of
// the other fields when the résumé could not be screened.
type Verdict struct {
	Answer  bool    `json:"answer"`
	Comment string  `json:"comment,omitempty"`
	Name    *string `json:"name,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Summary counts verdicts of a run.
type Summary struct {
	Initial  int `json:"initial"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// Result is a full screening run keyed by résumé path.
type Result struct {
	Vacancy  string              `json:"vacancy"`
	Verdicts map[string]*Verdict `json:"results"`
	Summary  Summary             `json:"summary"`
}

// Approved returns the paths of approved résumés in sorted order.
func (r *Result) Approved() []string {
	var paths []string
	for path, v := range r.Verdicts {
		if v.Error == "" && v.Answer {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	return paths
}

type verdictArgs struct {
	Answer  *bool   `mapstructure:"answer"`
	Comment string  `mapstructure:"comment"`
	Name    *string `mapstructure:"name"`
}

// Screener checks a folder of résumés against one vacancy.
type Screener struct {
	completer   ai.Completer
	logger      *zap.Logger
	concurrency int
	maxLogLen   int
}

func NewScreener(completer ai.Completer, logger *zap.Logger, concurrency int) *Screener {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Screener{
		completer:   completer,
		logger:      logger,
		concurrency: concurrency,
		maxLogLen:   defaultMaxLogLength,
	}
}

// Run screens every regular file in resumesDir. Setup problems are returned
// as errors; a failure on a single résumé is recorded in its Verdict.
func (s *Screener) Run(ctx context.Context, resumesDir, vacancyFile string) (*Result, error) {
	files, err := listFiles(resumesDir)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(vacancyFile); err != nil {
		return nil, fmt.Errorf("vacancy file %s: %w", vacancyFile, err)
	}

	table, name, err := extractor.ExtractTable(vacancyFile)
	if err != nil {
		return nil, fmt.Errorf("vacancy file %s: %w", vacancyFile, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(vacancyFile), filepath.Ext(vacancyFile))
	}

	system := strings.ReplaceAll(promptTemplate, "{{VACANCY}}", extractor.RenderTable(table))

	result := &Result{
		Vacancy:  name,
		Verdicts: make(map[string]*Verdict, len(files)),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, path := range files {
		g.Go(func() error {
			verdict := s.screen(ctx, system, path)

			mu.Lock()
			result.Verdicts[path] = verdict
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result.Summary = summarize(result.Verdicts)

	s.logger.Info("screening completed",
		zap.String("vacancy", name),
		zap.Int("initial_resumes", result.Summary.Initial),
		zap.Int("approved_resumes", result.Summary.Approved),
		zap.Int("failed_resumes", result.Summary.Failed),
	)

	return result, nil
}

func (s *Screener) screen(ctx context.Context, system, path string) *Verdict {
	verdict, err := s.screenOne(ctx, system, path)
	if err != nil {
		s.logger.Warn("resume screening failed",
			zap.String("resume", path),
			zap.Error(err),
		)
		return &Verdict{Error: err.Error()}
	}

	if verdict.Answer {
		s.logger.Info("resume approved by AI", zap.String("resume", path))
	} else {
		s.logger.Info("resume rejected by AI",
			zap.String("resume", path),
			zap.String("reason", verdict.Comment),
		)
	}
	return verdict
}

func (s *Screener) screenOne(ctx context.Context, system, path string) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := extractor.ExtractText(path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("screening request",
		zap.String("resume", path),
		zap.Int("resume_length", utf8.RuneCountInString(text)),
		zap.String("resume_preview", utils.TruncateForLog(text, s.maxLogLen)),
	)

	resp, err := s.completer.Complete(ctx, &ai.Request{
		System:      system,
		User:        text,
		Tool:        tool(),
		Temperature: ai.Temperature(temperature),
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Arguments == nil {
		return nil, errors.New("tool call carried no arguments")
	}

	var args verdictArgs
	if err := mapstructure.Decode(resp.Arguments, &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	if args.Answer == nil {
		return nil, errors.New("answer is required")
	}

	verdict := &Verdict{Answer: *args.Answer, Comment: strings.TrimSpace(args.Comment)}
	if args.Name != nil {
		if name := strings.TrimSpace(*args.Name); name != "" {
			verdict.Name = &name
		}
	}
	return verdict, nil
}

func listFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("resumes folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resumes folder %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read resumes folder %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("resumes folder %s is empty", dir)
	}
	return files, nil
}

func summarize(verdicts map[string]*Verdict) Summary {
	summary := Summary{Initial: len(verdicts)}
	for _, v := range verdicts {
		switch {
		case v.Error != "":
			summary.Failed++
		case v.Answer:
			summary.Approved++
		default:
			summary.Rejected++
		}
	}
	return summary
}

func tool() *ai.Tool {
	return &ai.Tool{
		Name:        toolName,
		Description: "Records the screening decision for a résumé.",
		Parameters: &ai.Schema{
			Type: ai.TypeObject,
			Properties: map[string]*ai.Schema{
				"answer":  {Type: ai.TypeBoolean, Description: "Invite the candidate to an interview."},
				"comment": {Type: ai.TypeString, Description: "Reasoning behind the decision."},
				"name":    {Type: ai.TypeString, Description: "Candidate full name.", Nullable: true},
			},
			Required: []string{"answer", "comment", "name"},
		},
	}
}
