package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/logger"
	"github.com/crb12546/musical-memory/internal/recruiting"
)

// Every mutation waits for the backend to acknowledge, then re-fetches the
// affected collection. A failed re-fetch is logged; the write still succeeded.

func (s *Store) CreateCandidate(ctx context.Context, in recruiting.CandidateInput) (*recruiting.Candidate, error) {
	out, err := s.backend.CreateCandidate(ctx, in)
	if err := s.settle(ctx, "create_candidate", Candidates, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UploadResume(ctx context.Context, candidateID string, file recruiting.ResumeFile, progress recruiting.Progress) (*recruiting.Resume, error) {
	out, err := s.backend.UploadResume(ctx, candidateID, file, progress)
	if err := s.settle(ctx, "upload_resume", Resumes, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, in recruiting.ProjectInput) (*recruiting.Project, error) {
	out, err := s.backend.CreateProject(ctx, in)
	if err := s.settle(ctx, "create_project", Projects, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, in recruiting.ProjectInput) (*recruiting.Project, error) {
	out, err := s.backend.UpdateProject(ctx, id, in)
	if err := s.settle(ctx, "update_project", Projects, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	err := s.backend.DeleteProject(ctx, id)
	return s.settle(ctx, "delete_project", Projects, err)
}

func (s *Store) CreateInterview(ctx context.Context, in recruiting.InterviewInput) (*recruiting.Interview, error) {
	out, err := s.backend.CreateInterview(ctx, in)
	if err := s.settle(ctx, "create_interview", Interviews, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateInterview(ctx context.Context, id string, in recruiting.InterviewUpdate) (*recruiting.Interview, error) {
	out, err := s.backend.UpdateInterview(ctx, id, in)
	if err := s.settle(ctx, "update_interview", Interviews, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SubmitFeedback(ctx context.Context, iv recruiting.Interview, feedback recruiting.InterviewFeedback) (*recruiting.Interview, error) {
	out, err := s.backend.SubmitFeedback(ctx, iv, feedback)
	if err := s.settle(ctx, "submit_feedback", Interviews, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) settle(ctx context.Context, op string, kind Kind, err error) error {
	s.metrics.observeMutation(op, err)

	if err != nil {
		fields := append(logger.ResourceFields(string(kind), ""),
			zap.String("operation", op),
			zap.String("reason", recruiting.UserMessage(err)),
		)
		s.logger.Warn("mutation rejected", fields...)
		return err
	}

	if err := s.refresh(ctx, kind, true); err != nil {
		fields := append(logger.ResourceFields(string(kind), ""),
			zap.String("operation", op),
			zap.Error(err),
		)
		s.logger.Warn("re-fetch after mutation failed", fields...)
	}

	return nil
}
