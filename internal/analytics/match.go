package analytics

import (
	"strings"

	"github.com/ecodeclub/ekit/slice"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

// MatchCandidates returns the candidates owning a resume with a tag whose
// name occurs, ignoring case, in the project's qualifications. Every resume
// of a candidate is considered. Order follows candidates.
func MatchCandidates(project *recruiting.Project, candidates recruiting.Candidates, resumes []recruiting.Resume) recruiting.Candidates {
	if project == nil {
		return recruiting.Candidates{}
	}

	qualifications := strings.ToLower(project.Qualifications.Text())
	if qualifications == "" {
		return recruiting.Candidates{}
	}

	matched := make(map[string]struct{})
	for _, resume := range resumes {
		if len(matchingTags(qualifications, resume)) > 0 {
			matched[resume.CandidateID] = struct{}{}
		}
	}

	if len(matched) == 0 {
		return recruiting.Candidates{}
	}

	return slice.FindAll(candidates, func(c recruiting.Candidate) bool {
		_, ok := matched[c.ID]
		return ok
	})
}

// MatchedTags lists the tag names of candidateID's resumes that occur in
// the project's qualifications, without duplicates.
func MatchedTags(project recruiting.Project, resumes []recruiting.Resume, candidateID string) []string {
	qualifications := strings.ToLower(project.Qualifications.Text())

	var out []string
	for _, resume := range resumes {
		if resume.CandidateID != candidateID {
			continue
		}
		for _, name := range matchingTags(qualifications, resume) {
			if !slice.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	return out
}

func matchingTags(qualifications string, resume recruiting.Resume) []string {
	var out []string
	for _, tag := range resume.Tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		if strings.Contains(qualifications, strings.ToLower(name)) {
			out = append(out, name)
		}
	}
	return out
}
