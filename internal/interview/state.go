package interview

import "github.com/spigell/ai-hr/internal/catalog"

// State is the progress of one session. It is not safe for concurrent use.
type State struct {
	catalog *catalog.Catalog
	cursor  int
	answers Answers
	results map[string]Result
	total   float64
}

func NewState(cat *catalog.Catalog) *State {
	return &State{
		catalog: cat,
		answers: make(Answers),
		results: make(map[string]Result),
	}
}

// Current returns the question under the cursor; false once complete.
func (s *State) Current() (catalog.Question, bool) {
	return s.catalog.Get(s.cursor)
}

// RecordAnswer stores answer, replacing an earlier answer to the same question.
func (s *State) RecordAnswer(category, question, answer string) {
	list := s.answers[category]
	for i := range list {
		if list[i].Question == question {
			list[i].Answer = answer
			return
		}
	}
	s.answers[category] = append(list, Answer{Question: question, Answer: answer})
}

// Advance moves to the next question; it stops at the end.
func (s *State) Advance() {
	if s.cursor < s.catalog.Size() {
		s.cursor++
	}
}

// Retreat moves back one question and reports whether the cursor changed.
func (s *State) Retreat() bool {
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	return true
}

func (s *State) IsComplete() bool {
	return s.cursor >= s.catalog.Size()
}

// MarkResult records an inline score. Marking the same id twice replaces the
// earlier result.
func (s *State) MarkResult(id string, passed bool, score float64) {
	s.results[id] = Result{Passed: passed, Score: score}

	total := 0.0
	for _, r := range s.results {
		total += r.Score
	}
	s.total = total
}

func (s *State) Cursor() int {
	return s.cursor
}

// Answers returns a deep copy of the recorded answers.
func (s *State) Answers() Answers {
	out := make(Answers, len(s.answers))
	for category, list := range s.answers {
		out[category] = append([]Answer(nil), list...)
	}
	return out
}

func (s *State) Results() map[string]Result {
	out := make(map[string]Result, len(s.results))
	for id, r := range s.results {
		out[id] = r
	}
	return out
}

func (s *State) TotalScore() float64 {
	return s.total
}
