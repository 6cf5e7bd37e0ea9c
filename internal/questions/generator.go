package questions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/catalog"
	"github.com/spigell/ai-hr/internal/extractor"
	"github.com/spigell/ai-hr/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	toolName            = "interview_questions"
	temperature         = 0.3
	defaultPerCategory  = 3
	defaultMaxLogLength = 200
)

// Categories is the fixed category order of a generated question set.
var Categories = []string{"general", "professional", "experience", "situational", "growth"}

type itemArgs struct {
	Question      string  `mapstructure:"question"`
	ExampleAnswer *string `mapstructure:"example_answer"`
}

type categoryArgs struct {
	Questions []itemArgs `mapstructure:"questions"`
}

// Generator drafts candidate-specific interview questions.
type Generator struct {
	completer   ai.Completer
	logger      *zap.Logger
	perCategory int
	maxLogLen   int
}

func NewGenerator(completer ai.Completer, logger *zap.Logger, perCategory int) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if perCategory <= 0 {
		perCategory = defaultPerCategory
	}
	return &Generator{
		completer:   completer,
		logger:      logger,
		perCategory: perCategory,
		maxLogLen:   defaultMaxLogLength,
	}
}

// Generate makes one forced tool call and returns the questions in
// Categories order.
func (g *Generator) Generate(ctx context.Context, vacancy map[string]string, resumeText string) (catalog.QuestionSet, error) {
	if len(vacancy) == 0 {
		return nil, errors.New("vacancy description is required")
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.New("resume text is required")
	}

	system := strings.ReplaceAll(promptTemplate, "{{COUNT}}", strconv.Itoa(g.perCategory))
	system = strings.ReplaceAll(system, "{{VACANCY}}", extractor.RenderTable(vacancy))

	g.logger.Debug("question generation request",
		zap.Int("resume_length", utf8.RuneCountInString(resumeText)),
		zap.String("resume_preview", utils.TruncateForLog(resumeText, g.maxLogLen)),
	)

	resp, err := g.completer.Complete(ctx, &ai.Request{
		System:      system,
		User:        "Candidate résumé:\n" + resumeText,
		Tool:        tool(),
		Temperature: ai.Temperature(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	if resp == nil || resp.Arguments == nil {
		return nil, errors.New("generate questions: tool call carried no arguments")
	}

	set, err := decode(resp.Arguments)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	g.logger.Info("questions generated", zap.Int("questions", set.Size()))
	return set, nil
}

func decode(arguments map[string]any) (catalog.QuestionSet, error) {
	var payload map[string]categoryArgs
	if err := mapstructure.Decode(arguments, &payload); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}

	set := make(catalog.QuestionSet, 0, len(Categories))
	for _, name := range Categories {
		category := catalog.Category{Name: name}
		for _, item := range payload[name].Questions {
			text := strings.TrimSpace(item.Question)
			if text == "" {
				continue
			}
			var expected *string
			if item.ExampleAnswer != nil {
				if trimmed := strings.TrimSpace(*item.ExampleAnswer); trimmed != "" {
					expected = &trimmed
				}
			}
			category.Questions = append(category.Questions, catalog.Item{Question: text, ExpectedAnswer: expected})
		}
		set = append(set, category)
	}

	if set.Size() == 0 {
		return nil, errors.New("model returned no questions")
	}
	return set, nil
}

func tool() *ai.Tool {
	item := &ai.Schema{
		Type: ai.TypeObject,
		Properties: map[string]*ai.Schema{
			"question":       {Type: ai.TypeString},
			"example_answer": {Type: ai.TypeString, Nullable: true},
		},
		Required: []string{"question", "example_answer"},
	}

	properties := make(map[string]*ai.Schema, len(Categories))
	for _, name := range Categories {
		properties[name] = &ai.Schema{
			Type: ai.TypeObject,
			Properties: map[string]*ai.Schema{
				"questions": {Type: ai.TypeArray, Items: item},
			},
			Required: []string{"questions"},
		}
	}

	return &ai.Tool{
		Name:        toolName,
		Description: "Interview questions grouped by category.",
		Parameters: &ai.Schema{
			Type:       ai.TypeObject,
			Properties: properties,
			Required:   slices.Clone(Categories),
		},
	}
}
