package recruiting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StringList is a list the backend stores as a JSON-encoded string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		*l = items
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	*l = ParseStringList(encoded)
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	items := []string(l)
	if items == nil {
		items = []string{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(encoded))
}

// Text joins the items for display and substring matching.
func (l StringList) Text() string {
	return strings.Join(l, ", ")
}

// ParseStringList reads a JSON-encoded array, falling back to a
// comma-separated plain string.
func ParseStringList(s string) StringList {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(s), &items); err == nil {
		return items
	}

	var out StringList
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type Project struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Department       string        `json:"department"`
	Headcount        int           `json:"headcount"`
	JobType          JobType       `json:"job_type"`
	JobLevel         JobLevel      `json:"job_level"`
	Location         string        `json:"location"`
	RemotePolicy     RemotePolicy  `json:"remote_policy"`
	SalaryRange      string        `json:"salary_range,omitempty"`
	Description      string        `json:"description"`
	Responsibilities StringList    `json:"responsibilities"`
	Qualifications   StringList    `json:"qualifications"`
	Benefits         StringList    `json:"benefits,omitempty"`
	Priority         Priority      `json:"priority"`
	Status           ProjectStatus `json:"status"`
	CurrentStage     string        `json:"current_stage,omitempty"`
	CompletedStages  []string      `json:"completed_stages,omitempty"`
	TargetDate       Time          `json:"target_date"`
	CreatedAt        Time          `json:"created_at"`
	UpdatedAt        Time          `json:"updated_at"`
}

func (p Project) timestamps() map[string]Time {
	return map[string]Time{
		"target_date": p.TargetDate,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

// ProjectInput is the body for create and update.
type ProjectInput struct {
	Title            string        `json:"title" validate:"min=2"`
	Department       string        `json:"department" validate:"min=2"`
	Headcount        int           `json:"headcount" validate:"min=1"`
	JobType          JobType       `json:"job_type" validate:"required,oneof=full-time part-time contract"`
	JobLevel         JobLevel      `json:"job_level" validate:"required,oneof=entry mid senior lead"`
	Location         string        `json:"location" validate:"min=2"`
	RemotePolicy     RemotePolicy  `json:"remote_policy" validate:"required,oneof=office hybrid remote"`
	SalaryRange      string        `json:"salary_range,omitempty"`
	Description      string        `json:"description" validate:"min=10"`
	Responsibilities StringList    `json:"responsibilities" validate:"min=1"`
	Qualifications   StringList    `json:"qualifications" validate:"min=1"`
	Benefits         StringList    `json:"benefits,omitempty"`
	Priority         Priority      `json:"priority" validate:"required,oneof=low normal high urgent"`
	Status           ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=draft open in-progress on-hold closed"`
	TargetDate       Time          `json:"target_date"`
}

// InputFrom copies the editable fields of p.
func InputFrom(p Project) ProjectInput {
	return ProjectInput{
		Title:            p.Title,
		Department:       p.Department,
		Headcount:        p.Headcount,
		JobType:          p.JobType,
		JobLevel:         p.JobLevel,
		Location:         p.Location,
		RemotePolicy:     p.RemotePolicy,
		SalaryRange:      p.SalaryRange,
		Description:      p.Description,
		Responsibilities: p.Responsibilities,
		Qualifications:   p.Qualifications,
		Benefits:         p.Benefits,
		Priority:         p.Priority,
		Status:           p.Status,
		TargetDate:       p.TargetDate,
	}
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Department = strings.TrimSpace(in.Department)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.SalaryRange = strings.TrimSpace(in.SalaryRange)
	in.Responsibilities = compact(in.Responsibilities)
	in.Qualifications = compact(in.Qualifications)
	in.Benefits = compact(in.Benefits)
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
}

func (in ProjectInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.TargetDate.IsZero() {
		return invalid("target_date", "请选择目标完成日期", nil)
	}
	return nil
}

func compact(l StringList) StringList {
	if l == nil {
		return nil
	}
	out := make(StringList, 0, len(l))
	for _, item := range l {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.getJSON(ctx, "list projects", projectsPath, &out); err != nil {
		return nil, err
	}
	warnUnparsedTimes[Project](c.logger, "list projects", out...)
	return out, nil
}

// CreateProject ignores in.Status; new projects start in the state the backend assigns.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	in.normalize()
	in.Status = ""
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out Project
	if err := c.sendJSON(ctx, "create project", http.MethodPost, projectsPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (*Project, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out Project
	if err := c.sendJSON(ctx, "update project", http.MethodPut, projectsPath+id, in, &out); err != nil {
		return nil, notFound(err, "项目不存在")
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}

	if err := c.sendJSON(ctx, "delete project", http.MethodDelete, projectsPath+id, nil, nil); err != nil {
		return notFound(err, "项目不存在")
	}
	return nil
}

// notFound replaces the generic 404 text with msg when the backend sent none.
func notFound(err error, msg string) error {
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound && !apiErr.FromServer {
		apiErr.Message = msg
	}
	return err
}
