package catalog

import "fmt"

// Question is one interview question. ID is "<category>_<ordinal>".
type Question struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	Text           string  `json:"question"`
	ExpectedAnswer *string `json:"expected_answer,omitempty"`
}

// Catalog is the fixed, ordered list of questions for one session.
type Catalog struct {
	questions []Question
}

// Build flattens the set in category order, then item order.
func Build(set QuestionSet) *Catalog {
	c := &Catalog{}
	for _, category := range set {
		for i, item := range category.Questions {
			c.questions = append(c.questions, Question{
				ID:             fmt.Sprintf("%s_%d", category.Name, i),
				Category:       category.Name,
				Text:           item.Question,
				ExpectedAnswer: copyString(item.ExpectedAnswer),
			})
		}
	}
	return c
}

// Get returns the question at position i.
func (c *Catalog) Get(i int) (Question, bool) {
	if c == nil || i < 0 || i >= len(c.questions) {
		return Question{}, false
	}
	return c.questions[i], true
}

func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	return len(c.questions)
}

// Questions returns a copy of the catalog in order.
func (c *Catalog) Questions() []Question {
	if c == nil {
		return nil
	}
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
