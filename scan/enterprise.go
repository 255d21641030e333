package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
	"github.com/shopspring/decimal"
)

// Enterprise report generators. These build on the standard findings
// plus the env analysis; reports_reliability additionally inspects
// which reports of the same run made it to storage.

// GoLiveReadiness renders a launch checklist with a READY / NOT READY
// verdict. The verdict is NOT READY whenever a critical config key is
// missing, a critical secret failed, or any area scan failed outright.
func (g *Generators) GoLiveReadiness(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	type gate struct {
		name string
		ok   bool
		note string
	}

	var gates []gate

	criticalMissing := 0
	envScore := 0
	if snap.Env != nil {
		envScore = snap.Env.ScoreBreakdown.Current
		for _, m := range snap.Env.MissingVars {
			if m.Priority == models.PriorityCritical {
				criticalMissing++
			}
		}
	}
	gates = append(gates, gate{
		name: "All critical configuration keys set",
		ok:   criticalMissing == 0,
		note: fmt.Sprintf("%d critical keys missing", criticalMissing),
	})

	secFailed := snap.Findings[AreaSecurity].Failed
	gates = append(gates, gate{
		name: "Critical secrets present and long enough",
		ok:   secFailed == 0,
		note: fmt.Sprintf("%d secret checks failed", secFailed),
	})

	gates = append(gates, gate{
		name: "Running in production mode",
		ok:   snap.Environment == "production",
		note: fmt.Sprintf("environment is %q", snap.Environment),
	})

	crashedAreas := []string{}
	for area, f := range snap.Findings {
		if f.Error != "" {
			crashedAreas = append(crashedAreas, area)
		}
	}
	sort.Strings(crashedAreas)
	gates = append(gates, gate{
		name: "Every area scan completed",
		ok:   len(crashedAreas) == 0,
		note: fmt.Sprintf("failed areas: %s", strings.Join(crashedAreas, ", ")),
	})

	admins := detailsOf[UsersDetails](snap, AreaUsers).Admins
	gates = append(gates, gate{
		name: "At least one admin account exists",
		ok:   admins > 0,
		note: fmt.Sprintf("%d admins", admins),
	})

	integrations := detailsOf[IntegrationsDetails](snap, AreaIntegrations)
	bothConfigured := integrations.PaymentGateway.Configured && integrations.ERP.Configured
	gates = append(gates, gate{
		name: "Payment gateway and ERP configured",
		ok:   bothConfigured,
		note: "optional for soft launch",
	})

	// The integrations gate advises but does not block.
	ready := true
	for _, gt := range gates[:len(gates)-1] {
		if !gt.ok {
			ready = false
		}
	}

	verdict := "READY"
	if !ready {
		verdict = "NOT READY"
	}

	var b strings.Builder
	reportHeader(&b, "Go-Live Readiness Report")
	fmt.Fprintf(&b, "## Verdict: %s\n\n", verdict)
	fmt.Fprintf(&b, "Environment score: %d%%\n\n", envScore)
	b.WriteString("## Checklist\n")
	b.WriteString("| Gate | Status | Notes |\n|------|--------|-------|\n")
	for _, gt := range gates {
		status := "pass"
		if !gt.ok {
			status = "fail"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", gt.name, status, gt.note)
	}

	return ReportDraft{
		Title:   "Go-Live Readiness Report",
		Summary: fmt.Sprintf("%s (env score %d%%)", verdict, envScore),
		Content: b.String(),
		Tags:    models.StringList{"go-live", "readiness", "checklist"},
		Stats:   snap.Results,
	}, nil
}

// ReconRow is one line of the order/transaction correlation.
type ReconRow struct {
	OrderID     int             `json:"orderId"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	TxAmount    decimal.Decimal `json:"txAmount"`
	Diff        decimal.Decimal `json:"diff"`
	Status      string          `json:"status"`
}

// ReconSummary counts rows per match status.
type ReconSummary struct {
	Matched   int `json:"matched"`
	Mismatch  int `json:"mismatched"`
	MissingTx int `json:"missingTx"`
	OrphanTx  int `json:"orphanTx"`
	Total     int `json:"total"`
}

// amounts within one cent are considered equal
var reconTolerance = decimal.New(1, -2)

// Reconcile correlates paid/completed orders with their transactions.
// Each order yields exactly one row; transactions pointing at unknown
// orders yield ORPHAN_TX rows.
func Reconcile(orders []models.Order, transactions []models.Transaction) ([]ReconRow, ReconSummary) {
	txByOrder := make(map[int]models.Transaction, len(transactions))
	for _, tx := range transactions {
		if tx.OrderID != nil {
			txByOrder[*tx.OrderID] = tx
		}
	}
	orderIDs := make(map[int]bool, len(orders))

	var rows []ReconRow
	for _, order := range orders {
		orderIDs[order.ID] = true
		row := ReconRow{OrderID: order.ID, OrderAmount: order.TotalAmount}
		if tx, ok := txByOrder[order.ID]; ok {
			row.TxAmount = tx.Amount
			row.Diff = order.TotalAmount.Sub(tx.Amount).Abs()
			if row.Diff.LessThan(reconTolerance) {
				row.Status = "MATCHED"
			} else {
				row.Status = "MISMATCH"
			}
		} else {
			row.Diff = order.TotalAmount.Abs()
			row.Status = "MISSING_TX"
		}
		rows = append(rows, row)
	}

	for _, tx := range transactions {
		if tx.OrderID != nil && !orderIDs[*tx.OrderID] {
			rows = append(rows, ReconRow{
				OrderID:  *tx.OrderID,
				TxAmount: tx.Amount,
				Diff:     tx.Amount.Abs(),
				Status:   "ORPHAN_TX",
			})
		}
	}

	summary := ReconSummary{Total: len(rows)}
	for _, row := range rows {
		switch row.Status {
		case "MATCHED":
			summary.Matched++
		case "MISMATCH":
			summary.Mismatch++
		case "MISSING_TX":
			summary.MissingTx++
		case "ORPHAN_TX":
			summary.OrphanTx++
		}
	}
	return rows, summary
}

// FinancialReconciliation runs the matcher over the live tables and
// renders the summary plus the first mismatched rows.
func (g *Generators) FinancialReconciliation(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	orders, transactions, err := models.PaidOrderTransactions(g.db.WithContext(ctx))
	if err != nil {
		return ReportDraft{}, err
	}
	rows, summary := Reconcile(orders, transactions)

	var b strings.Builder
	reportHeader(&b, "Financial Reconciliation Report")
	b.WriteString("## Summary\n")
	b.WriteString("| Status | Count |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Matched | %d |\n", summary.Matched)
	fmt.Fprintf(&b, "| Mismatched | %d |\n", summary.Mismatch)
	fmt.Fprintf(&b, "| Missing Transaction | %d |\n", summary.MissingTx)
	fmt.Fprintf(&b, "| Orphan Transaction | %d |\n\n", summary.OrphanTx)

	b.WriteString("## Discrepancies\n")
	shown := 0
	for _, row := range rows {
		if row.Status == "MATCHED" {
			continue
		}
		if shown == 50 {
			b.WriteString("- ... truncated\n")
			break
		}
		fmt.Fprintf(&b, "- Order %d: %s (order %s, tx %s, diff %s)\n",
			row.OrderID, row.Status,
			row.OrderAmount.StringFixed(2), row.TxAmount.StringFixed(2), row.Diff.StringFixed(2))
		shown++
	}
	if shown == 0 {
		b.WriteString("All orders reconcile\n")
	}

	return ReportDraft{
		Title:   "Financial Reconciliation Report",
		Summary: fmt.Sprintf("%d/%d matched", summary.Matched, summary.Total),
		Content: b.String(),
		Tags:    models.StringList{"reconciliation", "financial", "orders"},
	}, nil
}

// MissingKeysImpact ranks missing config keys by score impact and
// shows the cumulative gain of fixing them in order.
func (g *Generators) MissingKeysImpact(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	var missing []models.MissingVar
	current := 0
	if snap.Env != nil {
		missing = append(missing, snap.Env.MissingVars...)
		current = snap.Env.ScoreBreakdown.Current
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].PercentageGain > missing[j].PercentageGain
	})

	var b strings.Builder
	reportHeader(&b, "Missing Keys Impact Report")
	fmt.Fprintf(&b, "Current environment score: %d%%\n\n", current)
	b.WriteString("## Impact Ranking\n")
	if len(missing) == 0 {
		b.WriteString("Every registry key is configured\n")
	} else {
		b.WriteString("| Key | Priority | Gain | Cumulative |\n|-----|----------|------|------------|\n")
		cumulative := current
		for _, m := range missing {
			cumulative += m.PercentageGain
			if cumulative > 100 {
				cumulative = 100
			}
			fmt.Fprintf(&b, "| %s | %s | +%d%% | %d%% |\n", m.Key, m.Priority, m.PercentageGain, cumulative)
		}
		b.WriteString("\n## Remediation\n")
		for _, m := range missing {
			fmt.Fprintf(&b, "- %s: %s\n", m.Key, m.Description)
		}
	}

	return ReportDraft{
		Title:   "Missing Keys Impact Report",
		Summary: fmt.Sprintf("%d keys missing, score %d%%", len(missing), current),
		Content: b.String(),
		Tags:    models.StringList{"configuration", "keys", "impact"},
	}, nil
}

// RiskMatrix grades every scanned area by likelihood and impact,
// derived from the failed and warning counters.
func (g *Generators) RiskMatrix(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	riskOf := func(f models.Finding) string {
		switch {
		case f.Failed > 0 || f.Error != "":
			return "high"
		case f.Warnings > 0:
			return "medium"
		default:
			return "low"
		}
	}

	var b strings.Builder
	reportHeader(&b, "Risk Matrix Report")
	b.WriteString("## Area Risk Levels\n")
	b.WriteString("| Area | Failed | Warnings | Risk |\n|------|--------|----------|------|\n")

	high, medium := 0, 0
	for _, area := range AllAreas() {
		f, ok := snap.Findings[area]
		if !ok {
			continue
		}
		risk := riskOf(f)
		switch risk {
		case "high":
			high++
		case "medium":
			medium++
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", area, f.Failed, f.Warnings, risk)
	}

	b.WriteString("\n## Assessment\n")
	switch {
	case high > 0:
		fmt.Fprintf(&b, "%d areas carry high risk and need attention before launch\n", high)
	case medium > 0:
		fmt.Fprintf(&b, "%d areas carry medium risk\n", medium)
	default:
		b.WriteString("No elevated risk detected\n")
	}

	return ReportDraft{
		Title:   "Risk Matrix Report",
		Summary: fmt.Sprintf("%d high, %d medium risk areas", high, medium),
		Content: b.String(),
		Tags:    models.StringList{"risk", "matrix", "assessment"},
		Stats:   snap.Results,
	}, nil
}

// ReportsReliability reports on the success of every other generator
// in this run. It must run last in the catalogue.
func (g *Generators) ReportsReliability(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	var b strings.Builder
	reportHeader(&b, "Reports Reliability Report")
	b.WriteString("## Generated This Run\n")
	for _, r := range snap.Generated {
		fmt.Fprintf(&b, "- %s (%s)\n", r.ReportType, r.ReportID)
	}
	b.WriteString("\n## Failures\n")
	if len(snap.FailedReports) == 0 {
		b.WriteString("No generator failed\n")
	}
	for _, t := range snap.FailedReports {
		fmt.Fprintf(&b, "- %s failed to generate\n", t)
	}

	return ReportDraft{
		Title: "Reports Reliability Report",
		Summary: fmt.Sprintf("%d generated, %d failed",
			len(snap.Generated), len(snap.FailedReports)),
		Content: b.String(),
		Tags:    models.StringList{"reports", "reliability"},
	}, nil
}
