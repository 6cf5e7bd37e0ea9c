package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/extractor"
	"github.com/spigell/ai-hr/internal/questions"
	"github.com/spigell/ai-hr/internal/report"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate interview questions for a candidate",
	Run: func(_ *cobra.Command, _ []string) {
		runQuestions()
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)

	questionsCmd.Flags().StringP("vacancy-file", "v", "", "vacancy description with a two-column table")
	questionsCmd.Flags().StringP("resume-file", "r", "", "candidate résumé (.docx, .txt, .md)")
	questionsCmd.Flags().Int("per-category", 0, "questions per category")

	viper.BindPFlag("questions.vacancy-file", questionsCmd.Flags().Lookup("vacancy-file"))
	viper.BindPFlag("questions.resume-file", questionsCmd.Flags().Lookup("resume-file"))
	viper.BindPFlag("questions.per-category", questionsCmd.Flags().Lookup("per-category"))
}

func runQuestions() {
	ctx := context.Background()
	log, config := setup("questions")

	cfg := config.Questions
	if strings.TrimSpace(cfg.VacancyFile) == "" || strings.TrimSpace(cfg.ResumeFile) == "" {
		log.Fatal("vacancy file and résumé file are required",
			zap.String("hint", "set questions.vacancy-file and questions.resume-file or pass the flags"),
		)
	}

	vacancy, name, err := extractor.ExtractTable(cfg.VacancyFile)
	if err != nil {
		log.Fatal("reading vacancy", zap.Error(err))
	}

	resume, err := extractor.ExtractText(cfg.ResumeFile)
	if err != nil {
		log.Fatal("reading résumé", zap.Error(err))
	}

	completer := mustCompleter(ctx, config.AI, log, false)

	set, err := questions.NewGenerator(completer, log, cfg.PerCategory).Generate(ctx, vacancy, resume)
	if err != nil {
		log.Fatal("generating questions", zap.Error(err))
	}

	sink := report.NewSink(config.OutputDir, time.Now(), log)
	path, err := sink.Save(report.KindQuestions, set)
	if err != nil {
		log.Fatal("saving questions", zap.Error(err))
	}

	log.Info("questions are ready",
		zap.String("vacancy", name),
		zap.Int("questions", set.Size()),
		zap.String("path", path),
		zap.String("hint", "pass the file to the interview command with --questions-file"),
	)
}
