package constants

// JobStatus is the canonical status for a captioning job.
type JobStatus string

// Stable values (these exact strings appear in logs and CLI output).
const (
	JobStatusPending    JobStatus = "PENDING"    // accepted by the provider, not started
	JobStatusProcessing JobStatus = "PROCESSING" // in progress
	JobStatusSucceeded  JobStatus = "SUCCEEDED"  // terminal success (output available)
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure
	JobStatusTimedOut   JobStatus = "TIMED_OUT"  // poll budget exhausted, job may still be running upstream
)

// Terminal reports whether no further provider transition can occur.
// TIMED_OUT is a caller-side verdict, not a provider state, so it is not
// terminal here; a later poll of the same id may still resolve the job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// FromProvider maps a raw provider status string onto our state machine.
// Unknown strings are treated as still-in-progress rather than failures.
func FromProvider(s string) JobStatus {
	switch s {
	case "starting", "queued", "pending":
		return JobStatusPending
	case "processing", "running":
		return JobStatusProcessing
	case "succeeded":
		return JobStatusSucceeded
	case "failed", "canceled":
		return JobStatusFailed
	default:
		return JobStatusProcessing
	}
}
