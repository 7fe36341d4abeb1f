package pipeline

import "errors"

var (
	ErrUnknownCategory     = errors.New("unknown category")
	ErrArtifactUnavailable = errors.New("pipeline artifact unavailable")
	ErrPipelineFailure     = errors.New("pipeline failure")
)

const (
	KindUnknownCategory     = "unknown_category"
	KindArtifactUnavailable = "artifact_unavailable"
	KindPipelineFailure     = "pipeline_failure"
)

// ErrorKind maps an error to the label used in logs, metrics and audit records.
// Anything outside the taxonomy counts as a pipeline failure.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownCategory):
		return KindUnknownCategory
	case errors.Is(err, ErrArtifactUnavailable):
		return KindArtifactUnavailable
	default:
		return KindPipelineFailure
	}
}
