package model

import "time"

// RunStatus represents the current state of a scoring run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusNormalizing RunStatus = "normalizing"
	RunStatusRanking     RunStatus = "ranking"
	RunStatusAllocating  RunStatus = "allocating"
	RunStatusMapping     RunStatus = "mapping"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run is one scoring run, keyed by (ruleset content hash, run date) for
// provenance.
type Run struct {
	ID         string     `json:"id"`
	SnapshotID string     `json:"snapshot_id"`
	ConfigHash string     `json:"config_hash"`
	Status     RunStatus  `json:"status"`
	Result     *RunResult `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PhaseResult records timing and outcome for one pipeline stage.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunManifest is the provenance record emitted for downstream consumers:
// which exact rule set produced a given roster.
type RunManifest struct {
	RunID             string            `json:"run_id"`
	RunDate           string            `json:"run_date"`
	SnapshotID        string            `json:"snapshot_id"`
	ConfigHash        string            `json:"config_hash"`
	ComponentVersions map[string]string `json:"component_versions"`
	RecordCount       int               `json:"record_count"`
	PositionCounts    map[Position]int  `json:"position_counts"`
	EraCounts         map[string]int    `json:"era_counts"`
	ProcessingSteps   []string          `json:"processing_steps"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// RunResult holds the final outputs of a run.
type RunResult struct {
	Manifest    *RunManifest          `json:"manifest"`
	Selection   *SelectionManifest    `json:"selection"`
	Ratings     []AttributeRating     `json:"ratings"`
	Archetypes  []ArchetypeAssignment `json:"archetypes"`
	Phases      []PhaseResult         `json:"phases"`
	TotalRanked int                   `json:"total_ranked"`
}
