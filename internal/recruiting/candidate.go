package recruiting

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	// Status is owned by the backend and is not a closed set.
	Status    string `json:"status,omitempty"`
	CreatedAt Time   `json:"created_at"`
	UpdatedAt Time   `json:"updated_at"`
}

func (c Candidate) timestamps() map[string]Time {
	return map[string]Time{"created_at": c.CreatedAt, "updated_at": c.UpdatedAt}
}

// UnmarshalJSON accepts the lifecycle field as either "status" or "state".
func (c *Candidate) UnmarshalJSON(data []byte) error {
	type plain Candidate
	var aux struct {
		plain
		State string `json:"state"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*c = Candidate(aux.plain)
	if c.Status == "" {
		c.Status = aux.State
	}
	return nil
}

// StatusLabel returns the lifecycle value verbatim, or a dash when unset.
func (c Candidate) StatusLabel() string {
	if strings.TrimSpace(c.Status) == "" {
		return "-"
	}
	return c.Status
}

type Candidates []Candidate

func (c Candidates) Len() int {
	return len(c)
}

func (c Candidates) FindByID(id string) (Candidate, bool) {
	for _, candidate := range c {
		if candidate.ID == id {
			return candidate, true
		}
	}
	return Candidate{}, false
}

// Exclude returns the candidates whose ids are not in ids.
func (c Candidates) Exclude(ids map[string]struct{}) Candidates {
	if len(ids) == 0 {
		return c
	}

	out := make(Candidates, 0, len(c))
	for _, candidate := range c {
		if _, skip := ids[candidate.ID]; skip {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

type CandidateInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

func (c *Client) ListCandidates(ctx context.Context) (Candidates, error) {
	var out Candidates
	if err := c.getJSON(ctx, "list candidates", candidatesPath, &out); err != nil {
		return nil, err
	}
	warnUnparsedTimes[Candidate](c.logger, "list candidates", out...)
	return out, nil
}

func (c *Client) CreateCandidate(ctx context.Context, in CandidateInput) (*Candidate, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var out Candidate
	if err := c.sendJSON(ctx, "create candidate", http.MethodPost, candidatesPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
