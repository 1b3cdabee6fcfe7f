package domain

// CodeArtifact is the text of one generated file, keyed by component or file
// name. Path is relative to the site root.
type CodeArtifact struct {
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Code    string       `json:"-"`
	Quality QualityScore `json:"quality"`
}

// QualityScore holds per-dimension scores (0-100) for an artifact together
// with the issues detected and the fixes applied. It is telemetry only.
type QualityScore struct {
	Syntax        float64  `json:"syntax"`
	Accessibility float64  `json:"accessibility"`
	Performance   float64  `json:"performance"`
	Integration   float64  `json:"integration,omitempty"`
	// Integrated is set once the cross-file critic has scored the artifact.
	Integrated    bool     `json:"integrated,omitempty"`
	Overall       float64  `json:"overall"`
	Issues        []string `json:"issues,omitempty"`
	Fixes         []string `json:"fixes,omitempty"`
}

// NewQualityScore returns a score with every per-artifact dimension at 100
// and no integration score.
func NewQualityScore() QualityScore {
	return QualityScore{
		Syntax:        100,
		Accessibility: 100,
		Performance:   100,
		Overall:       100,
	}
}

// ComputeOverall sets Overall to the mean of the dimensions present.
// Integration counts only once it has been set.
func (q *QualityScore) ComputeOverall() {
	sum, n := q.Syntax+q.Accessibility+q.Performance, 3.0
	if q.Integrated {
		sum += q.Integration
		n++
	}
	q.Overall = sum / n
}

// SetIntegration records the cross-file score and recomputes Overall.
func (q *QualityScore) SetIntegration(score float64) {
	q.Integration = score
	q.Integrated = true
	q.ComputeOverall()
}

// AddIssue records a detected issue.
func (q *QualityScore) AddIssue(issue string) {
	q.Issues = append(q.Issues, issue)
}

// AddFix records an applied fix.
func (q *QualityScore) AddFix(fix string) {
	q.Fixes = append(q.Fixes, fix)
}
