package recruiting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// InterviewFeedback is the structured evaluation form.
type InterviewFeedback struct {
	TechnicalScore      int            `json:"technical_score" mapstructure:"technical_score" validate:"min=1,max=5"`
	CommunicationScore  int            `json:"communication_score" mapstructure:"communication_score" validate:"min=1,max=5"`
	CultureFitScore     int            `json:"culture_fit_score" mapstructure:"culture_fit_score" validate:"min=1,max=5"`
	Strengths           []string       `json:"strengths" mapstructure:"strengths"`
	AreasForImprovement []string       `json:"areas_for_improvement" mapstructure:"areas_for_improvement"`
	Recommendation      Recommendation `json:"recommendation" mapstructure:"recommendation" validate:"required,oneof=strong_hire hire hold reject"`
	OverallRating       float64        `json:"overall_rating" mapstructure:"overall_rating" validate:"min=1,max=5"`
	InterviewerNotes    string         `json:"interviewer_notes,omitempty" mapstructure:"interviewer_notes"`
}

func (f InterviewFeedback) Validate() error {
	return validateStruct(f)
}

// Feedback holds either a structured form or free text.
type Feedback struct {
	Structured *InterviewFeedback
	Text       string
}

func StructuredFeedback(f InterviewFeedback) Feedback {
	return Feedback{Structured: &f}
}

func TextFeedback(s string) Feedback {
	return Feedback{Text: strings.TrimSpace(s)}
}

func (f Feedback) IsZero() bool {
	return f.Structured == nil && strings.TrimSpace(f.Text) == ""
}

// Summary is a one-line rendering for lists.
func (f Feedback) Summary() string {
	switch {
	case f.Structured != nil:
		return strings.TrimSpace(fmt.Sprintf("%.1f/5 %s", f.Structured.OverallRating, f.Structured.Recommendation.Label()))
	case f.Text != "":
		return f.Text
	default:
		return "-"
	}
}

func (f *Feedback) UnmarshalJSON(data []byte) error {
	*f = Feedback{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("decode feedback: %w", err)
		}
		text = strings.TrimSpace(text)
		if !strings.HasPrefix(text, "{") {
			f.Text = text
			return nil
		}
		data = []byte(text)
	}

	// Anything that is not a readable feedback form is kept as its raw text
	// so that one malformed row does not fail a whole list.
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		f.Text = string(data)
		return nil
	}

	var structured InterviewFeedback
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &structured,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		f.Text = string(data)
		return nil
	}

	f.Structured = &structured
	return nil
}

func (f Feedback) MarshalJSON() ([]byte, error) {
	switch {
	case f.Structured != nil:
		return json.Marshal(f.Structured)
	case f.Text != "":
		return json.Marshal(f.Text)
	default:
		return []byte("null"), nil
	}
}

// SplitList splits a comma-separated form value, dropping blank items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
