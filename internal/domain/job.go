package domain

import "time"

// JobStatus is the externally visible status of a job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusSucceeded  JobStatus = "succeeded"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// IsTerminal reports whether no further transitions will happen.
func (s JobStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusPartial
}

// JobRequest is a job submission.
type JobRequest struct {
	Brief   string `json:"brief" validate:"required_without=Company"`
	Company string `json:"company,omitempty"`
	Domain  string `json:"domain,omitempty" validate:"omitempty,hostname|fqdn"`
	Force   bool   `json:"force,omitempty"`
	Deploy  bool   `json:"deploy,omitempty"`
}

// Validate checks the request fields.
func (r *JobRequest) Validate() error {
	return validate.Struct(r)
}

// SiteName returns the directory name a job writes into.
func (r *JobRequest) SiteName() string {
	switch {
	case r.Domain != "":
		return r.Domain
	case r.Company != "":
		return r.Company
	default:
		return "site"
	}
}

// JobState is the orchestrator's per-job record.
type JobState struct {
	TaskID             string                   `json:"task_id"`
	State              string                   `json:"state"`
	GenerationAttempts int                      `json:"generation_attempts"`
	RepairAttempts     int                      `json:"repair_attempts"`
	BuildAttempts      int                      `json:"build_attempts"`
	Artifacts          map[string]*CodeArtifact `json:"-"`
	Status             JobStatus                `json:"status"`
}

// WriteStats summarizes the files persisted for a site.
type WriteStats struct {
	Files int `json:"files"`
	Bytes int `json:"bytes"`
	Lines int `json:"lines"`
}

// JobResult is the terminal record of a job.
type JobResult struct {
	Status    JobStatus               `json:"status"`
	SitePath  string                  `json:"site_path,omitempty"`
	Summary   string                  `json:"summary,omitempty"`
	Reason    string                  `json:"reason,omitempty"`
	BuildLog  string                  `json:"build_log,omitempty"`
	Quality   map[string]QualityScore `json:"quality,omitempty"`
	Warnings  []string                `json:"warnings,omitempty"`
	Stats     WriteStats              `json:"stats"`
	Repairs   int                     `json:"repairs"`
	Duration  time.Duration           `json:"duration"`
	LastError *BuildErrorRecord       `json:"last_error,omitempty"`
}
