package recruiting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

type ContentState int

const (
	ContentAbsent ContentState = iota
	ContentParsed
	ContentError
)

func (s ContentState) String() string {
	switch s {
	case ContentParsed:
		return "parsed"
	case ContentError:
		return "error"
	default:
		return "absent"
	}
}

const unreadableContent = "简历内容解析失败"

// ParsedContent is the backend's extraction result for a resume. It arrives
// as null, as a JSON-encoded string or as an object; an object carrying an
// "error" key is a processing failure.
type ParsedContent struct {
	State    ContentState
	Sections ResumeSections
	// Raw holds the decoded object for preview rendering.
	Raw     map[string]any
	Message string
}

type ResumeSections struct {
	Skills               Skills               `mapstructure:"skills"`
	Experience           []ExperienceEntry    `mapstructure:"experience"`
	Education            []EducationEntry     `mapstructure:"education"`
	Certifications       []CertificationEntry `mapstructure:"certifications"`
	TotalYearsExperience float64              `mapstructure:"total_years_experience"`
	CareerLevel          string               `mapstructure:"career_level"`
	SuggestedRoles       []string             `mapstructure:"suggested_roles"`
	SuggestedTags        []string             `mapstructure:"suggested_tags"`
}

type Skills struct {
	Technical []string `mapstructure:"technical"`
	Soft      []string `mapstructure:"soft"`
	Languages []string `mapstructure:"languages"`
}

type ExperienceEntry struct {
	Company      string   `mapstructure:"company"`
	Title        string   `mapstructure:"title"`
	Duration     string   `mapstructure:"duration"`
	StartDate    string   `mapstructure:"start_date"`
	EndDate      string   `mapstructure:"end_date"`
	Achievements []string `mapstructure:"achievements"`
	Technologies []string `mapstructure:"technologies"`
}

type EducationEntry struct {
	Institution    string `mapstructure:"institution"`
	Degree         string `mapstructure:"degree"`
	Field          string `mapstructure:"field"`
	GraduationDate string `mapstructure:"graduation_date"`
	GPA            string `mapstructure:"gpa"`
}

type CertificationEntry struct {
	Name    string `mapstructure:"name"`
	Issuer  string `mapstructure:"issuer"`
	Date    string `mapstructure:"date"`
	Expires string `mapstructure:"expires"`
}

func (p *ParsedContent) UnmarshalJSON(data []byte) error {
	*p = ParsedContent{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("decode parsed content: %w", err)
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			return nil
		}
		data = []byte(encoded)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		p.State = ContentError
		p.Message = unreadableContent
		return nil
	}

	p.fromMap(raw)
	return nil
}

func (p *ParsedContent) fromMap(raw map[string]any) {
	p.Raw = raw

	if msg, ok := raw["error"]; ok && truthy(msg) {
		p.State = ContentError
		p.Message = fmt.Sprint(msg)
		return
	}

	p.State = ContentParsed

	// A shape mismatch keeps whatever decoded; the raw map still renders.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &p.Sections,
	})
	if err == nil {
		_ = decoder.Decode(raw)
	}
}

func (p ParsedContent) MarshalJSON() ([]byte, error) {
	switch p.State {
	case ContentParsed:
		return json.Marshal(p.Raw)
	case ContentError:
		return json.Marshal(map[string]string{"error": p.Message})
	default:
		return []byte("null"), nil
	}
}

func (p ParsedContent) IsParsed() bool {
	return p.State == ContentParsed
}

// PreviewSection is one block of the resume preview.
type PreviewSection struct {
	Key   string
	Title string
	Items []string
	// Fields is set when the section is an object; sorted by key.
	Fields []PreviewField
	Text   string
}

type PreviewField struct {
	Key   string
	Value string
}

var previewSections = []struct {
	key   string
	title string
}{
	{"basic_info", "基本信息"},
	{"experience", "工作经验"},
	{"education", "教育背景"},
	{"skills", "技能"},
	{"projects", "项目经历"},
}

// Preview lists the sections present in parsed content. It is empty unless
// the content is in the parsed state.
func (p ParsedContent) Preview() []PreviewSection {
	if p.State != ContentParsed {
		return nil
	}

	var out []PreviewSection
	for _, s := range previewSections {
		value, ok := p.Raw[s.key]
		if !ok || !truthy(value) {
			continue
		}

		section := PreviewSection{Key: s.key, Title: s.title}
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				section.Items = append(section.Items, render(item))
			}
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				section.Fields = append(section.Fields, PreviewField{Key: k, Value: render(v[k])})
			}
		default:
			section.Text = render(v)
		}
		out = append(out, section)
	}
	return out
}

func render(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	default:
		return true
	}
}
