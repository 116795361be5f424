package domain

// NullSummary describes missing values for a single column.
type NullSummary struct {
	Count      int     `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// ValidationReport is the read-only artifact produced by dataset
// validation. Issues are structural problems that make the dataset
// unusable; warnings are quality findings the cleaner is expected to
// resolve. Validation itself never mutates data and never fails on
// data-quality grounds.
type ValidationReport struct {
	TotalRows    int                    `json:"total_rows" yaml:"total_rows"`
	TotalColumns int                    `json:"total_columns" yaml:"total_columns"`
	Issues       []string               `json:"issues" yaml:"issues"`
	Warnings     []string               `json:"warnings" yaml:"warnings"`
	NullCounts   map[Column]NullSummary `json:"null_counts" yaml:"null_counts"`
}

// HasIssues reports whether any hard issue was found.
func (r *ValidationReport) HasIssues() bool {
	return len(r.Issues) > 0
}

// StageRemoval records how many rows one cleaning stage removed.
type StageRemoval struct {
	Stage   string `json:"stage" yaml:"stage"`
	Removed int    `json:"removed" yaml:"removed"`
}

// CleaningReport summarizes a single cleaning run.
type CleaningReport struct {
	RunID             string         `json:"run_id" yaml:"run_id"`
	OriginalRows      int            `json:"original_rows" yaml:"original_rows"`
	CleanedRows       int            `json:"cleaned_rows" yaml:"cleaned_rows"`
	RemovedRows       int            `json:"removed_rows" yaml:"removed_rows"`
	RemovalPercentage float64        `json:"removal_percentage" yaml:"removal_percentage"`
	QualityScore      float64        `json:"quality_score" yaml:"quality_score"`
	Stages            []StageRemoval `json:"stages" yaml:"stages"`
}
