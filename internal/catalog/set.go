package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is a question with an optional reference answer.
type Item struct {
	Question       string  `json:"question" yaml:"question"`
	ExpectedAnswer *string `json:"expected_answer,omitempty" yaml:"expected_answer,omitempty"`
}

// Category groups items under a name such as "general".
type Category struct {
	Name      string
	Questions []Item
}

// QuestionSet keeps categories in the order they were written.
type QuestionSet []Category

// Size is the number of questions across all categories.
func (s QuestionSet) Size() int {
	n := 0
	for _, c := range s {
		n += len(c.Questions)
	}
	return n
}

// LoadFile reads a YAML or JSON question file.
func LoadFile(path string) (QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file %s: %w", path, err)
	}

	set, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse questions file %s: %w", path, err)
	}
	return set, nil
}

// Decode parses YAML (and therefore JSON) preserving category order.
func Decode(data []byte) (QuestionSet, error) {
	var set QuestionSet
	if len(bytes.TrimSpace(data)) == 0 {
		return set, nil
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *QuestionSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: question set must be a mapping of category to questions", node.Line)
	}

	seen := make(map[string]struct{}, len(node.Content)/2)
	out := make(QuestionSet, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		if name == "" {
			return fmt.Errorf("line %d: empty category name", node.Content[i].Line)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("line %d: duplicate category %q", node.Content[i].Line, name)
		}
		seen[name] = struct{}{}

		items, err := decodeItems(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		out = append(out, Category{Name: name, Questions: items})
	}

	*s = out
	return nil
}

func decodeItems(node *yaml.Node) ([]Item, error) {
	switch node.Kind {
	case yaml.SequenceNode:
	case yaml.MappingNode:
		// {questions: [...]} wrapper
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "questions" {
				return decodeItems(node.Content[i+1])
			}
		}
		return nil, fmt.Errorf("line %d: expected a questions list", node.Line)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		fallthrough
	default:
		return nil, fmt.Errorf("line %d: expected a list of questions", node.Line)
	}

	items := make([]Item, 0, len(node.Content))
	for _, child := range node.Content {
		var item Item
		if err := child.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (it *Item) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		it.Question = strings.TrimSpace(node.Value)
		it.ExpectedAnswer = nil
	} else {
		var raw struct {
			Question         string  `yaml:"question"`
			ExpectedAnswer   *string `yaml:"expected_answer"`
			ExpectedResponse *string `yaml:"expected_response"`
			ExampleAnswer    *string `yaml:"example_answer"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}

		it.Question = strings.TrimSpace(raw.Question)
		it.ExpectedAnswer = firstNonEmpty(raw.ExpectedAnswer, raw.ExpectedResponse, raw.ExampleAnswer)
	}

	if it.Question == "" {
		return errors.New("question text is required")
	}
	return nil
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			return &trimmed
		}
	}
	return nil
}

// MarshalJSON writes categories as an object in set order.
func (s QuestionSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		questions := c.Questions
		if questions == nil {
			questions = []Item{}
		}
		value, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
