package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ai-hr/internal/utils"
)

// File name prefixes.
const (
	KindInterviewResults = "interview_results"
	KindFinalReport      = "final_report"
	KindScreening        = "screening"
	KindQuestions        = "questions"
)

// Sink writes JSON documents named "<kind>_<timestamp>.json" into a
// directory. All files written by one Sink share the same timestamp.
type Sink struct {
	dir    string
	stamp  string
	logger *zap.Logger
}

func NewSink(dir string, at time.Time, logger *zap.Logger) *Sink {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{dir: dir, stamp: utils.Timestamp(at), logger: logger}
}

// Path returns where a document of the given kind is written.
func (s *Sink) Path(kind string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", kind, s.stamp))
}

// Save writes v as indented JSON and returns the file path.
func (s *Sink) Save(kind string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", s.dir, err)
	}

	path := s.Path(kind)
	if err := WriteJSON(path, v); err != nil {
		return "", err
	}

	s.logger.Info("report saved",
		zap.String("kind", kind),
		zap.String("path", path),
	)
	return path, nil
}

// WriteJSON writes v to path, replacing any existing content.
func WriteJSON(path string, v any) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes path into v. An empty file leaves v untouched.
func ReadJSON(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() == 0 {
		return nil
	}

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
