package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/ai"
	"github.com/spigell/ai-hr/internal/catalog"
	"github.com/spigell/ai-hr/internal/interview"
	"github.com/spigell/ai-hr/internal/report"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score saved interview answers and write the final report",
	Run: func(cmd *cobra.Command, _ []string) {
		runEvaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("answers-file", "a", "", "interview_results_*.json file with saved answers")
	evaluateCmd.Flags().StringP("questions-file", "q", "", "YAML or JSON file with interview questions")
	evaluateCmd.Flags().String("vacancy", "", "vacancy name used in prompts")
	evaluateCmd.Flags().Int("concurrency", 0, "parallel evaluation calls")

	evaluateCmd.MarkFlagRequired("answers-file")

	viper.BindPFlag("evaluation.concurrency", evaluateCmd.Flags().Lookup("concurrency"))
}

func runEvaluate(cmd *cobra.Command) {
	ctx := context.Background()
	log, config := setup("evaluate")

	questionsFile := config.Interview.QuestionsFile
	if flag := cmd.Flag("questions-file"); flag.Changed {
		questionsFile = flag.Value.String()
	}
	vacancy := config.Interview.Vacancy
	if flag := cmd.Flag("vacancy"); flag.Changed {
		vacancy = flag.Value.String()
	}

	if strings.TrimSpace(questionsFile) == "" {
		log.Fatal("questions file is required",
			zap.String("hint", "set interview.questions-file or pass --questions-file"),
		)
	}

	completer := mustCompleter(ctx, config.AI, log, true)

	final, err := evaluateSaved(ctx, config, completer, log, cmd.Flag("answers-file").Value.String(), questionsFile, vacancy)
	if err != nil {
		log.Fatal("evaluating saved answers", zap.Error(err))
	}

	sink := report.NewSink(config.OutputDir, time.Now(), log)
	if _, err := sink.Save(report.KindFinalReport, final); err != nil {
		log.Fatal("saving final report", zap.Error(err))
	}

	printReport(os.Stdout, final)
}

// evaluateSaved scores answers saved by an earlier interview against the
// question file they were collected with.
func evaluateSaved(ctx context.Context, config *Config, completer ai.Completer, log *zap.Logger, answersFile, questionsFile, vacancy string) (*interview.Report, error) {
	set, err := catalog.LoadFile(questionsFile)
	if err != nil {
		return nil, fmt.Errorf("loading questions: %w", err)
	}
	cat := catalog.Build(set)

	answers := interview.Answers{}
	if err := report.ReadJSON(answersFile, &answers); err != nil {
		return nil, fmt.Errorf("loading answers from %s: %w", answersFile, err)
	}

	log.Info("evaluating saved answers",
		zap.String("path", answersFile),
		zap.Int("questions", cat.Size()),
		zap.Int("answers", answers.Count()),
	)

	evaluator := interview.NewEvaluator(completer, log, interview.EvaluatorConfig{
		CallTimeout:  config.Interview.CallTimeout,
		Concurrency:  config.Evaluation.Concurrency,
		MaxLogLength: maxLogLength(config.AI),
	})

	records := evaluator.Evaluate(ctx, answers, cat, vacancy)

	summary := ""
	if config.Interview.Summary {
		summary = evaluator.Summarize(ctx, records, vacancy)
	}

	final := interview.BuildReport(records, summary)
	final.Vacancy = vacancy
	return final, nil
}
