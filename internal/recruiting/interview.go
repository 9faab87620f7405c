package recruiting

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type Interview struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	CandidateID   string          `json:"candidate_id"`
	ScheduledTime Time            `json:"scheduled_time"`
	InterviewType InterviewType   `json:"interview_type"`
	Status        InterviewStatus `json:"status"`
	Feedback      Feedback        `json:"feedback"`
	CreatedAt     Time            `json:"created_at"`
	UpdatedAt     Time            `json:"updated_at"`
}

func (iv Interview) timestamps() map[string]Time {
	return map[string]Time{
		"scheduled_time": iv.ScheduledTime,
		"created_at":     iv.CreatedAt,
		"updated_at":     iv.UpdatedAt,
	}
}

// InterviewInput schedules an interview. ScheduledTime is entered as
// YYYY-MM-DDTHH:MM with optional seconds.
type InterviewInput struct {
	ProjectID     string          `json:"project_id" validate:"required,uuid"`
	CandidateID   string          `json:"candidate_id" validate:"required,uuid"`
	ScheduledTime string          `json:"-"`
	InterviewType InterviewType   `json:"interview_type" validate:"omitempty,oneof=technical hr manager behavioral culture"`
	Status        InterviewStatus `json:"status" validate:"omitempty,oneof=scheduled in-progress completed cancelled no_show"`
	// Rating and Notes are required when Status is completed.
	Rating int    `json:"-"`
	Notes  string `json:"-"`
}

type interviewBody struct {
	ProjectID     string          `json:"project_id"`
	CandidateID   string          `json:"candidate_id"`
	ScheduledTime string          `json:"scheduled_time"`
	InterviewType InterviewType   `json:"interview_type"`
	Status        InterviewStatus `json:"status"`
	Feedback      Feedback        `json:"feedback"`
}

// InterviewUpdate replaces the mutable fields of an interview.
type InterviewUpdate struct {
	ProjectID     string          `json:"project_id" validate:"required,uuid"`
	CandidateID   string          `json:"candidate_id" validate:"required,uuid"`
	ScheduledTime Time            `json:"scheduled_time"`
	InterviewType InterviewType   `json:"interview_type"`
	Status        InterviewStatus `json:"status" validate:"omitempty,oneof=scheduled in-progress completed cancelled no_show"`
	Feedback      Feedback        `json:"feedback" validate:"-"`
}

// UpdateFrom copies the mutable fields of iv.
func UpdateFrom(iv Interview) InterviewUpdate {
	return InterviewUpdate{
		ProjectID:     iv.ProjectID,
		CandidateID:   iv.CandidateID,
		ScheduledTime: iv.ScheduledTime,
		InterviewType: iv.InterviewType,
		Status:        iv.Status,
		Feedback:      iv.Feedback,
	}
}

func (c *Client) ListInterviews(ctx context.Context) ([]Interview, error) {
	var out []Interview
	if err := c.getJSON(ctx, "list interviews", interviewsPath, &out); err != nil {
		return nil, err
	}
	warnUnparsedTimes[Interview](c.logger, "list interviews", out...)
	return out, nil
}

func (c *Client) CreateInterview(ctx context.Context, in InterviewInput) (*Interview, error) {
	body, err := c.interviewBody(in)
	if err != nil {
		return nil, err
	}

	var out Interview
	if err := c.sendJSON(ctx, "create interview", http.MethodPost, interviewsPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) interviewBody(in InterviewInput) (*interviewBody, error) {
	scheduled, err := ParseScheduledTime(in.ScheduledTime, c.now())
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.CandidateID) == "" {
		return nil, invalid("candidate_id", "请选择候选人：从下拉列表中选择一位候选人", ErrMissingID)
	}

	if in.Status == "" {
		in.Status = InterviewScheduled
	}
	if in.InterviewType == "" {
		in.InterviewType = "technical"
	}

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(in.Notes)
	if in.Status == InterviewCompleted {
		if in.Rating == 0 {
			return nil, invalid("rating", "评分缺失：已完成的面试必须提供评分（1-5星）", ErrRatingRequired)
		}
		if notes == "" {
			return nil, invalid("feedback", "反馈缺失：已完成的面试必须提供详细的反馈意见", ErrFeedbackRequired)
		}
	}
	if in.Rating < 0 || in.Rating > 5 {
		return nil, invalid("rating", "评分必须在1-5之间", nil)
	}

	body := &interviewBody{
		ProjectID:     in.ProjectID,
		CandidateID:   in.CandidateID,
		ScheduledTime: scheduled.Format(scheduledTimeLayout),
		InterviewType: in.InterviewType,
		Status:        in.Status,
	}

	if in.Rating > 0 || notes != "" {
		body.Feedback = StructuredFeedback(InterviewFeedback{
			TechnicalScore:   in.Rating,
			OverallRating:    float64(in.Rating),
			InterviewerNotes: notes,
		})
	}

	return body, nil
}

func (c *Client) UpdateInterview(ctx context.Context, id string, in InterviewUpdate) (*Interview, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if in.Status == InterviewCompleted && in.Feedback.IsZero() {
		return nil, invalid("feedback", "反馈缺失：已完成的面试必须提供详细的反馈意见", ErrFeedbackRequired)
	}

	c.logger.Debug("updating interview", zap.String("id", id), zap.String("status", string(in.Status)))

	var out Interview
	if err := c.sendJSON(ctx, "update interview", http.MethodPut, interviewsPath+id, in, &out); err != nil {
		return nil, notFound(err, "面试不存在")
	}
	return &out, nil
}

// SubmitFeedback marks iv completed with a structured evaluation.
func (c *Client) SubmitFeedback(ctx context.Context, iv Interview, feedback InterviewFeedback) (*Interview, error) {
	feedback.Strengths = compact(feedback.Strengths)
	feedback.AreasForImprovement = compact(feedback.AreasForImprovement)
	feedback.InterviewerNotes = strings.TrimSpace(feedback.InterviewerNotes)

	if err := feedback.Validate(); err != nil {
		return nil, err
	}

	update := UpdateFrom(iv)
	update.Status = InterviewCompleted
	update.Feedback = StructuredFeedback(feedback)

	return c.UpdateInterview(ctx, iv.ID, update)
}
