package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/catalog"
	"github.com/spigell/ai-hr/internal/interview"
	"github.com/spigell/ai-hr/internal/logger"
	"github.com/spigell/ai-hr/internal/report"
)

const (
	PromptEvaluate     = "Evaluate answers now"
	PromptSkipEvaluate = "Finish without evaluation"
)

var quitWords = map[string]struct{}{
	"quit":      {},
	"exit":      {},
	"завершить": {},
}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Conduct an interactive interview from a questions file",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("questions-file", "q", "", "YAML or JSON file with interview questions")
	interviewCmd.Flags().String("vacancy", "", "vacancy name used in prompts")
	interviewCmd.Flags().Bool("inline-scoring", false, "score every answer during the interview")
	interviewCmd.Flags().Duration("call-timeout", 0, "timeout for a single LLM call")
	interviewCmd.Flags().BoolP("auto-approve", "y", false, "do not ask before evaluating answers")

	viper.BindPFlag("interview.questions-file", interviewCmd.Flags().Lookup("questions-file"))
	viper.BindPFlag("interview.vacancy", interviewCmd.Flags().Lookup("vacancy"))
	viper.BindPFlag("interview.inline-scoring", interviewCmd.Flags().Lookup("inline-scoring"))
	viper.BindPFlag("interview.call-timeout", interviewCmd.Flags().Lookup("call-timeout"))
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := setup("interview")

	if strings.TrimSpace(config.Interview.QuestionsFile) == "" {
		log.Fatal("questions file is required",
			zap.String("hint", "set interview.questions-file or pass --questions-file"),
		)
	}

	set, err := catalog.LoadFile(config.Interview.QuestionsFile)
	if err != nil {
		log.Fatal("loading questions", zap.Error(err))
	}
	cat := catalog.Build(set)

	sessionID := uuid.NewString()
	log = logger.WithSession(log, sessionID, config.Interview.Vacancy)
	log.Info("starting the interview", zap.Int("questions", cat.Size()))

	completer := mustCompleter(ctx, config.AI, log, true)

	s := newSession(sessionID, config, cat, completer, log, os.Stdout)
	s.converse(ctx, readCandidateInput)

	answers := s.controller.Answers()
	if answers.Count() == 0 {
		log.Info("exiting", zap.String("reason", "no answers collected"))
		fmt.Fprintln(s.out, "\nNo data to analyze.")
		return
	}

	sink := report.NewSink(config.OutputDir, time.Now(), log)
	if _, err := sink.Save(report.KindInterviewResults, answers); err != nil {
		log.Error("saving raw answers", zap.Error(err))
	}

	evaluate := config.Interview.Evaluate
	if evaluate && cmd.Flag("auto-approve").Value.String() == "false" {
		evaluate = confirmEvaluation(log)
	}

	final := s.finish(ctx, evaluate, config.Interview.Summary)
	if final == nil {
		log.Info("exiting", zap.String("reason", "evaluation skipped"))
		return
	}

	if _, err := sink.Save(report.KindFinalReport, final); err != nil {
		log.Error("saving final report", zap.Error(err))
	}

	printReport(s.out, final)
}

type session struct {
	id         string
	vacancy    string
	config     *Config
	catalog    *catalog.Catalog
	completer  ai.Completer
	controller *interview.Controller
	logger     *zap.Logger
	out        io.Writer
}

func newSession(id string, config *Config, cat *catalog.Catalog, completer ai.Completer, log *zap.Logger, out io.Writer) *session {
	classifier := interview.NewClassifier(completer, log, interview.ClassifierConfig{
		CallTimeout:   config.Interview.CallTimeout,
		InlineScoring: config.Interview.InlineScoring,
		MaxLogLength:  maxLogLength(config.AI),
	})

	return &session{
		id:         id,
		vacancy:    config.Interview.Vacancy,
		config:     config,
		catalog:    cat,
		completer:  completer,
		controller: interview.NewController(cat, classifier, config.Interview.Vacancy, log),
		logger:     log,
		out:        out,
	}
}

// converse runs the dialogue until the interview completes, the candidate
// types a quit word or read fails.
func (s *session) converse(ctx context.Context, read func() (string, error)) {
	start := s.controller.Start()
	fmt.Fprintf(s.out, "Interviewer: %s\n", start.Message)
	if start.Complete {
		return
	}

	for {
		input, err := read()
		if err != nil {
			s.logger.Info("interview interrupted", zap.Error(err))
			return
		}

		if isQuitWord(input) {
			s.logger.Info("interview finished by the candidate", zap.Int("cursor", s.controller.Cursor()))
			fmt.Fprintln(s.out, "\nThe interview was finished at the candidate's request.")
			return
		}

		res := s.controller.ProcessInput(ctx, input)
		fmt.Fprintf(s.out, "\nInterviewer: %s\n", res.Message)

		if res.Complete {
			fmt.Fprintln(s.out, "\nThe interview is over.")
			return
		}

		if res.NextQuestion == "" {
			continue
		}
		if res.Action == interview.ActionNextQuestion {
			fmt.Fprintf(s.out, "\nNext question: %s\n", res.NextQuestion)
		} else {
			fmt.Fprintf(s.out, "\n%s\n", res.NextQuestion)
		}
	}
}

// finish scores the session. It returns nil when evaluation is off and
// there are no inline scores to report.
func (s *session) finish(ctx context.Context, evaluate, summarize bool) *interview.Report {
	answers := s.controller.Answers()

	var records []interview.EvaluationRecord
	switch {
	case evaluate:
		evaluator := interview.NewEvaluator(s.completer, s.logger, interview.EvaluatorConfig{
			CallTimeout:  s.config.Interview.CallTimeout,
			Concurrency:  s.config.Evaluation.Concurrency,
			MaxLogLength: maxLogLength(s.config.AI),
		})
		records = evaluator.Evaluate(ctx, answers, s.catalog, s.vacancy)
	case s.config.Interview.InlineScoring:
		records = interview.RecordsFromResults(s.catalog, answers, s.controller.Results())
	default:
		return nil
	}

	summary := ""
	if summarize {
		evaluator := interview.NewEvaluator(s.completer, s.logger, interview.EvaluatorConfig{
			CallTimeout: s.config.Interview.CallTimeout,
		})
		summary = evaluator.Summarize(ctx, records, s.vacancy)
	}

	final := interview.BuildReport(records, summary)
	final.Vacancy = s.vacancy
	final.SessionID = s.id

	s.logger.Info("interview report is ready",
		zap.Int("answered", final.Answered),
		zap.Int("passed", final.Passed),
		zap.Float64("average_score", final.AverageScore),
	)
	return final
}

func isQuitWord(input string) bool {
	_, ok := quitWords[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

func readCandidateInput() (string, error) {
	p := promptui.Prompt{Label: "Candidate"}
	input, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", io.EOF
	}
	return input, err
}

func confirmEvaluation(log *zap.Logger) bool {
	prompt := promptui.Select{
		Label: "The interview is over. Evaluate the answers?",
		Items: []string{PromptEvaluate, PromptSkipEvaluate},
	}

	_, action, err := prompt.Run()
	if err != nil {
		log.Warn("reading post-interview action", zap.Error(err))
		return false
	}
	return action == PromptEvaluate
}

func printReport(out io.Writer, r *interview.Report) {
	fmt.Fprintln(out, "\n--- Final report ---")
	for _, rec := range r.Records {
		switch {
		case rec.Error != "":
			fmt.Fprintf(out, "[%s] %s\n  error: %s\n", rec.Category, rec.Question, rec.Error)
		case rec.Evaluation != nil:
			fmt.Fprintf(out, "[%s] %s\n  score: %.1f, passed: %t, feedback: %s\n",
				rec.Category, rec.Question, rec.Evaluation.Score, rec.Evaluation.Passed, rec.Evaluation.Feedback)
		}
	}
	fmt.Fprintf(out, "\nAnswered %d of %d, passed %d, average score %.2f\n", r.Answered, r.Questions, r.Passed, r.AverageScore)
	if r.Summary != "" {
		fmt.Fprintf(out, "\nSummary: %s\n", r.Summary)
	}
}

func maxLogLength(cfg *AIConfig) int {
	if strings.EqualFold(strings.TrimSpace(cfg.Provider), providerOpenRouter) {
		return cfg.OpenRouter.MaxLogLength
	}
	return cfg.Gemini.MaxLogLength
}
