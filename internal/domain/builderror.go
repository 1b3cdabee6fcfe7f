package domain

import "fmt"

// ErrorKind classifies a parsed build error.
type ErrorKind string

const (
	ErrorKindGeneric        ErrorKind = "Generic"
	ErrorKindModuleNotFound ErrorKind = "ModuleNotFound"
	ErrorKindOther          ErrorKind = "Other"
)

// DefaultPosition is used for line and column when a matcher cannot capture them.
const DefaultPosition = "1"

// BuildErrorRecord is a structured build failure extracted from build output.
type BuildErrorRecord struct {
	FilePath     string    `json:"file_path"`
	Line         string    `json:"line"`
	Column       string    `json:"column"`
	ErrorMessage string    `json:"error_message"`
	ErrorType    ErrorKind `json:"error_type"`
	// MissingModule is the unresolved import for ModuleNotFound errors.
	MissingModule string `json:"missing_module,omitempty"`
	// Matcher names the strategy that produced the record.
	Matcher string `json:"matcher,omitempty"`
}

// Location formats the record as path:line:column.
func (r *BuildErrorRecord) Location() string {
	return fmt.Sprintf("%s:%s:%s", r.FilePath, r.Line, r.Column)
}

// String implements fmt.Stringer.
func (r *BuildErrorRecord) String() string {
	return fmt.Sprintf("%s [%s] %s", r.Location(), r.ErrorType, r.ErrorMessage)
}
