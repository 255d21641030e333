package models

import "time"

// Finding is the uniform result shape returned by one area scanner.
// Produced exactly once per requested area, even on probe failure
// (checks=1, failed=1, error set). Never partially populated.
type Finding struct {
	Checks   int    `json:"checks"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	Warnings int    `json:"warnings"`
	Details  any    `json:"details,omitempty"`
	Error    string `json:"error,omitempty"`

	// Populated only by the system_keys area (environment scorer).
	MissingVars    []MissingVar    `json:"missingVars,omitempty"`
	ScoreBreakdown *ScoreBreakdown `json:"scoreBreakdown,omitempty"`
}

// FailedFinding is the synthetic finding recorded when a probe errors.
func FailedFinding(err error) Finding {
	return Finding{Checks: 1, Passed: 0, Failed: 1, Warnings: 0, Error: err.Error()}
}

// ScoreBreakdown is the environment scorer output.
// Invariant: EarnedWeight + MissingWeight == TotalWeight and
// Current == round(EarnedWeight/TotalWeight*100).
type ScoreBreakdown struct {
	Current       int `json:"current"`
	Potential     int `json:"potential"`
	EarnedWeight  int `json:"earnedWeight"`
	TotalWeight   int `json:"totalWeight"`
	MissingWeight int `json:"missingWeight"`
}

// MissingVar describes one absent registry item and what configuring
// it would gain.
type MissingVar struct {
	Key            string   `json:"key"`
	Weight         int      `json:"weight"`
	PercentageGain int      `json:"percentageGain"`
	Category       string   `json:"category"`
	Priority       Priority `json:"priority"`
	Description    string   `json:"description"`
}

// VarDetail is the per-item presence/strength record of the scorer.
type VarDetail struct {
	Key         string      `json:"key"`
	Status      string      `json:"status"` // configured | missing
	Weight      int         `json:"weight"`
	Category    string      `json:"category"`
	Priority    Priority    `json:"priority"`
	Description string      `json:"description"`
	Strength    VarStrength `json:"strength,omitempty"`
}

// GeneratedReport is one report reference stored on the scan record.
type GeneratedReport struct {
	ReportID     string    `json:"reportId"`
	ReportType   string    `json:"reportType"`
	IsEnterprise bool      `json:"isEnterprise,omitempty"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// ScanResults are the aggregate counters of one run.
type ScanResults struct {
	TotalChecks int `json:"totalChecks"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	Warnings    int `json:"warnings"`
	Score       int `json:"score"`
}

// ScanProgress tracks sequential probe/report bookkeeping.
type ScanProgress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}
