package models

// DatasetType is the registry's dataset kind. Unknown values are kept as-is.
type DatasetType string

const (
	DatasetOccurrence    DatasetType = "OCCURRENCE"
	DatasetChecklist     DatasetType = "CHECKLIST"
	DatasetSamplingEvent DatasetType = "SAMPLING_EVENT"
	DatasetMetadata      DatasetType = "METADATA"
)

// ResourceType is the catalog's resource kind.
type ResourceType string

const (
	ResourceRecords     ResourceType = "records"
	ResourceSpeciesList ResourceType = "species-list"
)

// Content type tags attached to imported resources.
const (
	ContentGBIFImport          = "gbif import"
	ContentPointOccurrenceData = "point occurrence data"
	ContentSpeciesList         = "species-list"
)

// OutcomeState is the terminal state of one dataset key in a run.
type OutcomeState string

const (
	OutcomeCreated         OutcomeState = "created"
	OutcomeUpdated         OutcomeState = "updated"
	OutcomeSkippedNotFound OutcomeState = "skipped_not_found"
	OutcomeErrorAmbiguous  OutcomeState = "error_ambiguous"
	OutcomeErrorUpstream   OutcomeState = "error_upstream"
	OutcomeErrorMalformed  OutcomeState = "error_malformed"
)

// IsError reports whether the state counts as a failure for the key.
func (s OutcomeState) IsError() bool {
	switch s {
	case OutcomeErrorAmbiguous, OutcomeErrorUpstream, OutcomeErrorMalformed:
		return true
	default:
		return false
	}
}

// Run statuses.
const (
	RunRunning     = "running"
	RunCompleted   = "completed"
	RunInterrupted = "interrupted"
)
