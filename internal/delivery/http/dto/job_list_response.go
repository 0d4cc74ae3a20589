package dto

import (
	"strings"
	"time"

	"fdeworld/internal/domain/job"
	"fdeworld/internal/usecase"

	"github.com/dustin/go-humanize"
)

// JobResponse is a job with a relative age for display.
type JobResponse struct {
	job.Job
	PostedAgo string `json:"posted_ago"`
}

type JobListResponse struct {
	Jobs       []JobResponse `json:"jobs"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func NewJobResponse(j job.Job, now time.Time) JobResponse {
	out := JobResponse{Job: j}
	when := j.PostedDate
	if when == nil || strings.TrimSpace(*when) == "" {
		when = j.FirstSeenAt
	}
	if t, ok := parseDate(when); ok {
		out.PostedAgo = humanize.RelTime(t, now, "ago", "from now")
	}
	return out
}

func NewJobResponses(jobs []job.Job, now time.Time) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, NewJobResponse(j, now))
	}
	return out
}

func NewJobListResponse(res usecase.JobSearchResult, now time.Time) JobListResponse {
	return JobListResponse{
		Jobs:       NewJobResponses(res.Jobs, now),
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}

func parseDate(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	v := strings.TrimSpace(*s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
