package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/report"
	"github.com/spigell/ai-hr/internal/screening"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen a folder of résumés against a vacancy description",
	Run: func(_ *cobra.Command, _ []string) {
		runScreen()
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("resumes-dir", "r", "", "folder with résumés (.docx, .txt, .md)")
	screenCmd.Flags().StringP("vacancy-file", "v", "", "vacancy description with a two-column table")
	screenCmd.Flags().IntP("concurrency", "c", 0, "parallel screening calls")

	viper.BindPFlag("screening.resumes-dir", screenCmd.Flags().Lookup("resumes-dir"))
	viper.BindPFlag("screening.vacancy-file", screenCmd.Flags().Lookup("vacancy-file"))
	viper.BindPFlag("screening.concurrency", screenCmd.Flags().Lookup("concurrency"))
}

func runScreen() {
	ctx := context.Background()
	log, config := setup("screen")

	cfg := config.Screening
	if strings.TrimSpace(cfg.ResumesDir) == "" || strings.TrimSpace(cfg.VacancyFile) == "" {
		log.Fatal("resumes folder and vacancy file are required",
			zap.String("hint", "set screening.resumes-dir and screening.vacancy-file or pass the flags"),
		)
	}

	completer := mustCompleter(ctx, config.AI, log, false)

	result, err := screening.NewScreener(completer, log, cfg.Concurrency).Run(ctx, cfg.ResumesDir, cfg.VacancyFile)
	if err != nil {
		log.Fatal("screening failed", zap.Error(err))
	}

	sink := report.NewSink(config.OutputDir, time.Now(), log)
	path, err := sink.Save(report.KindScreening, result)
	if err != nil {
		log.Fatal("saving screening results", zap.Error(err))
	}

	log.Info("screening results",
		zap.String("path", path),
		zap.Strings("approved", result.Approved()),
	)
}
