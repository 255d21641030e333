package models

type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
)

type ScanScope string

const (
	ScanScopeFull     ScanScope = "full"
	ScanScopePartial  ScanScope = "partial"
	ScanScopeTargeted ScanScope = "targeted"
)

// Severity of one classified issue. Dominance order for category
// escalation: error > warning > info > ok.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityOK      Severity = "ok"
)

// Rank returns the dominance rank of a severity (higher dominates).
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Priority tier of a registry config item.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

type VarStrength string

const (
	StrengthStrong VarStrength = "strong"
	StrengthMedium VarStrength = "medium"
	StrengthWeak   VarStrength = "weak"
)

type ReportStatus string

const (
	ReportStatusPublished ReportStatus = "published"
)
