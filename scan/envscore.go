package scan

import (
	"math"
	"os"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

// LookupFunc resolves a config key to its value. os.LookupEnv in
// production; tests substitute a map-backed lookup.
type LookupFunc func(key string) (string, bool)

// OSLookup reads from the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// EnvAnalysis is the full output of the weighted environment scoring
// pass, kept alongside the finding for the missing_keys_impact and
// go_live_readiness reports. Configured is Details filtered to the
// present keys; API clients read it directly.
type EnvAnalysis struct {
	Details        []models.VarDetail    `json:"details"`
	Configured     []models.VarDetail    `json:"configured"`
	MissingVars    []models.MissingVar   `json:"missingVars"`
	ScoreBreakdown models.ScoreBreakdown `json:"scoreBreakdown"`
}

// EnvScorer walks the weighted registry and measures how much of the
// total score weight the current environment has earned.
type EnvScorer struct {
	registry *Registry
	lookup   LookupFunc
}

func NewEnvScorer(registry *Registry, lookup LookupFunc) *EnvScorer {
	return &EnvScorer{registry: registry, lookup: lookup}
}

// Score evaluates every registry item exactly once. The returned
// finding carries the per-variable details plus the breakdown; the
// analysis holds the same data in typed form for report generators.
func (s *EnvScorer) Score() (models.Finding, *EnvAnalysis) {
	total := s.registry.TotalWeight()
	earned := 0
	missingWeight := 0

	details := make([]models.VarDetail, 0, s.registry.Len())
	configured := []models.VarDetail{}
	missing := []models.MissingVar{}

	finding := models.Finding{Checks: s.registry.Len()}

	for _, item := range s.registry.Items() {
		value, ok := s.lookup(item.Key)
		if ok && value != "" {
			earned += item.Weight
			finding.Passed++
			detail := models.VarDetail{
				Key:         item.Key,
				Status:      "configured",
				Weight:      item.Weight,
				Category:    item.Category,
				Priority:    item.Priority,
				Description: item.Description,
				Strength:    valueStrength(value),
			}
			details = append(details, detail)
			configured = append(configured, detail)
			continue
		}

		missingWeight += item.Weight
		if item.Priority == models.PriorityCritical {
			finding.Failed++
		} else {
			finding.Warnings++
		}
		details = append(details, models.VarDetail{
			Key:         item.Key,
			Status:      "missing",
			Weight:      item.Weight,
			Category:    item.Category,
			Priority:    item.Priority,
			Description: item.Description,
		})
		missing = append(missing, models.MissingVar{
			Key:            item.Key,
			Weight:         item.Weight,
			PercentageGain: percentOf(item.Weight, total),
			Category:       item.Category,
			Priority:       item.Priority,
			Description:    item.Description,
		})
	}

	breakdown := models.ScoreBreakdown{
		Current:       percentOf(earned, total),
		Potential:     100,
		EarnedWeight:  earned,
		TotalWeight:   total,
		MissingWeight: missingWeight,
	}

	finding.Details = details
	finding.MissingVars = missing
	finding.ScoreBreakdown = &breakdown

	return finding, &EnvAnalysis{
		Details:        details,
		Configured:     configured,
		MissingVars:    missing,
		ScoreBreakdown: breakdown,
	}
}

// valueStrength grades a configured secret by length only. Values are
// never logged or persisted.
func valueStrength(value string) models.VarStrength {
	switch {
	case len(value) >= 32:
		return models.StrengthStrong
	case len(value) >= 16:
		return models.StrengthMedium
	default:
		return models.StrengthWeak
	}
}

func percentOf(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
