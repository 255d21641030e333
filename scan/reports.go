package scan

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
	"gorm.io/gorm"
)

// Snapshot is the read-only view of a finished scanning pass that the
// report generators and the classifier consume. Generators never see
// each other's output except through Generated and FailedReports,
// which the orchestrator appends to between generator runs.
type Snapshot struct {
	ScanID      string
	Findings    map[string]models.Finding
	Results     models.ScanResults
	Env         *EnvAnalysis
	Environment string
	StartedAt   time.Time

	Generated     []models.GeneratedReport
	FailedReports []string
}

func detailsOf[T any](snap *Snapshot, area string) T {
	var zero T
	f, ok := snap.Findings[area]
	if !ok {
		return zero
	}
	if d, ok := f.Details.(T); ok {
		return d
	}
	return zero
}

// ReportDraft is a generator's output before persistence.
type ReportDraft struct {
	Title   string
	Summary string
	Content string
	Tags    models.StringList
	Stats   models.ScanResults
}

// GenerateFunc builds one report from the snapshot. An error skips
// only this report; the rest of the catalogue still runs.
type GenerateFunc func(ctx context.Context, snap *Snapshot) (ReportDraft, error)

// ReportGenerator pairs a report type with its builder.
type ReportGenerator struct {
	Type         string
	IsEnterprise bool
	Generate     GenerateFunc
}

// Generators builds the full report catalogue. Some generators read
// supporting data directly from the database.
type Generators struct {
	db *gorm.DB
}

func NewGenerators(db *gorm.DB) *Generators {
	return &Generators{db: db}
}

// Catalogue returns all generators in generation order: the eight
// standard reports, then the enterprise set with reports_reliability
// last.
func (g *Generators) Catalogue() []ReportGenerator {
	return []ReportGenerator{
		{Type: ReportFinancialPayments, Generate: g.FinancialPayments},
		{Type: ReportOrdersTransactions, Generate: g.OrdersTransactions},
		{Type: ReportUsersPermissions, Generate: g.UsersPermissions},
		{Type: ReportAdminAuditTrail, Generate: g.AdminAuditTrail},
		{Type: ReportIntegrationsWebhook, Generate: g.IntegrationsWebhooks},
		{Type: ReportDataIntegrity, Generate: g.DataIntegrity},
		{Type: ReportSecurityAccess, Generate: g.SecurityAccess},
		{Type: ReportSystemHealth, Generate: g.SystemHealth},

		{Type: ReportGoLiveReadiness, IsEnterprise: true, Generate: g.GoLiveReadiness},
		{Type: ReportFinancialReconciliation, IsEnterprise: true, Generate: g.FinancialReconciliation},
		{Type: ReportMissingKeysImpact, IsEnterprise: true, Generate: g.MissingKeysImpact},
		{Type: ReportRiskMatrix, IsEnterprise: true, Generate: g.RiskMatrix},
		{Type: ReportReportsReliability, IsEnterprise: true, Generate: g.ReportsReliability},
	}
}

func statsOf(snap *Snapshot, area string) models.ScanResults {
	f, ok := snap.Findings[area]
	if !ok {
		return models.ScanResults{}
	}
	score := 0
	if f.Checks > 0 {
		score = percentOf(f.Passed, f.Checks)
	}
	return models.ScanResults{
		TotalChecks: f.Checks,
		Passed:      f.Passed,
		Failed:      f.Failed,
		Warnings:    f.Warnings,
		Score:       score,
	}
}

func reportHeader(b *strings.Builder, title string) {
	fmt.Fprintf(b, "# %s\n\n", title)
	fmt.Fprintf(b, "**Generated:** %s\n\n", time.Now().UTC().Format(time.RFC3339))
}

// FinancialPayments summarizes revenue, payment events and pending
// withdrawals.
func (g *Generators) FinancialPayments(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	revenue, err := models.TotalRevenue(g.db.WithContext(ctx))
	if err != nil {
		return ReportDraft{}, err
	}
	pending, err := models.PendingWithdrawalTotal(g.db.WithContext(ctx))
	if err != nil {
		return ReportDraft{}, err
	}

	pay := detailsOf[PaymentDataDetails](snap, AreaPaymentData)

	var b strings.Builder
	reportHeader(&b, "Financial & Payments Report")
	b.WriteString("## Revenue Summary\n")
	fmt.Fprintf(&b, "- Total Revenue: %s\n", revenue.StringFixed(2))
	fmt.Fprintf(&b, "- Payment Events: %d\n", pay.PaymentEvents)
	fmt.Fprintf(&b, "- Failed Payments: %d\n\n", pay.FailedPayments)
	b.WriteString("## Withdrawals\n")
	fmt.Fprintf(&b, "- Pending Amount: %s\n\n", pending.StringFixed(2))
	b.WriteString("## Payment Methods\n")
	fmt.Fprintf(&b, "- Orders with payment: %d\n", pay.OrdersWithPayment)

	return ReportDraft{
		Title:   "Financial & Payments Report",
		Summary: fmt.Sprintf("Revenue: %s", revenue.StringFixed(2)),
		Content: b.String(),
		Tags:    models.StringList{"financial", "payments", "revenue"},
		Stats:   statsOf(snap, AreaPaymentData),
	}, nil
}

// OrdersTransactions lays out order counts per status and the
// transaction totals.
func (g *Generators) OrdersTransactions(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	o := detailsOf[OrdersDetails](snap, AreaOrders)
	t := detailsOf[TransactionsDetails](snap, AreaTransactions)

	var b strings.Builder
	reportHeader(&b, "Orders & Transactions Report")
	b.WriteString("## Orders Summary\n")
	b.WriteString("| Status | Count |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Total | %d |\n", o.Total)
	fmt.Fprintf(&b, "| Paid | %d |\n", o.Paid)
	fmt.Fprintf(&b, "| Pending | %d |\n", o.Pending)
	fmt.Fprintf(&b, "| Completed | %d |\n", o.Completed)
	fmt.Fprintf(&b, "| Cancelled | %d |\n\n", o.Cancelled)
	b.WriteString("## Data Quality\n")
	fmt.Fprintf(&b, "- Orphaned Orders: %d\n\n", o.Orphaned)
	b.WriteString("## Transactions\n")
	fmt.Fprintf(&b, "- Total: %d\n", t.Total)
	fmt.Fprintf(&b, "- Completed: %d\n", t.Completed)
	fmt.Fprintf(&b, "- Failed: %d\n", t.Failed)

	return ReportDraft{
		Title:   "Orders & Transactions Report",
		Summary: fmt.Sprintf("%d orders, %d paid", o.Total, o.Paid),
		Content: b.String(),
		Tags:    models.StringList{"orders", "transactions"},
		Stats:   statsOf(snap, AreaOrders),
	}, nil
}

// UsersPermissions lists the user base per role and the admin roster.
func (g *Generators) UsersPermissions(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	u := detailsOf[UsersDetails](snap, AreaUsers)
	p := detailsOf[PermissionsDetails](snap, AreaPermissions)

	var b strings.Builder
	reportHeader(&b, "Users & Permissions Report")
	b.WriteString("## User Statistics\n")
	b.WriteString("| Role | Count |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Total | %d |\n", u.Total)
	fmt.Fprintf(&b, "| Admins | %d |\n", u.Admins)
	fmt.Fprintf(&b, "| Agents | %d |\n", u.Agents)
	fmt.Fprintf(&b, "| Customers | %d |\n\n", u.Customers)
	b.WriteString("## Data Quality\n")
	fmt.Fprintf(&b, "- Users without role: %d\n\n", u.NoRole)
	b.WriteString("## Admin Permissions\n")
	if len(p.Admins) == 0 {
		b.WriteString("No admins found\n")
	}
	for _, admin := range p.Admins {
		mark := "limited"
		if admin.HasPermissions {
			mark = "full"
		}
		fmt.Fprintf(&b, "- %s: %s\n", admin.Name, mark)
	}

	return ReportDraft{
		Title:   "Users & Permissions Report",
		Summary: fmt.Sprintf("%d users, %d admins", u.Total, u.Admins),
		Content: b.String(),
		Tags:    models.StringList{"users", "permissions", "roles"},
		Stats:   statsOf(snap, AreaUsers),
	}, nil
}

// AdminAuditTrail lists the twenty most recent audit entries plus the
// latest orders as activity context.
func (g *Generators) AdminAuditTrail(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	logs, err := models.RecentAuditLogs(g.db.WithContext(ctx), 20)
	if err != nil {
		return ReportDraft{}, err
	}
	orders, err := models.RecentOrders(g.db.WithContext(ctx), 10)
	if err != nil {
		return ReportDraft{}, err
	}

	var b strings.Builder
	reportHeader(&b, "Admin Actions & Audit Trail")
	b.WriteString("## Recent Actions\n")
	if len(logs) == 0 {
		b.WriteString("No audit logs found\n")
	}
	for _, l := range logs {
		actor := l.ActorName
		if actor == "" {
			actor = "System"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", l.CreatedAt.Format(time.RFC3339), actor, l.Action)
	}
	b.WriteString("\n## Recent Orders\n")
	if len(orders) == 0 {
		b.WriteString("No orders found\n")
	}
	for _, o := range orders {
		fmt.Fprintf(&b, "| #%d | %s | %s | %s |\n",
			o.ID, o.Status, o.TotalAmount.StringFixed(2), o.CreatedAt.Format("2006-01-02"))
	}
	b.WriteString("\n## Summary\n")
	fmt.Fprintf(&b, "- Total logged actions: %d\n", len(logs))

	return ReportDraft{
		Title:   "Admin Actions & Audit Trail",
		Summary: fmt.Sprintf("%d recent actions", len(logs)),
		Content: b.String(),
		Tags:    models.StringList{"audit", "admin", "trail"},
	}, nil
}

// IntegrationsWebhooks renders the integration probe status table.
func (g *Generators) IntegrationsWebhooks(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	d := detailsOf[IntegrationsDetails](snap, AreaIntegrations)

	mark := func(configured bool) string {
		if configured {
			return "configured"
		}
		return "not configured"
	}

	var b strings.Builder
	reportHeader(&b, "Integrations & Webhooks Report")
	b.WriteString("## Integration Status\n")
	b.WriteString("| Integration | Status |\n|-------------|--------|\n")
	fmt.Fprintf(&b, "| ERP | %s |\n", mark(d.ERP.Configured))
	fmt.Fprintf(&b, "| Payment Gateway | %s |\n\n", mark(d.PaymentGateway.Configured))
	b.WriteString("## Recommendations\n")
	if !d.ERP.Configured {
		b.WriteString("- Configure the ERP connector for full sync\n")
	}
	if !d.PaymentGateway.Configured {
		b.WriteString("- Configure the payment gateway for payment processing\n")
	}
	if d.ERP.Configured && d.PaymentGateway.Configured {
		b.WriteString("All integrations configured\n")
	}

	return ReportDraft{
		Title:   "Integrations & Webhooks Report",
		Summary: fmt.Sprintf("ERP: %s | Gateway: %s", mark(d.ERP.Configured), mark(d.PaymentGateway.Configured)),
		Content: b.String(),
		Tags:    models.StringList{"integrations", "webhooks", "erp", "gateway"},
		Stats:   statsOf(snap, AreaIntegrations),
	}, nil
}

// DataIntegrity cross-references the orphan and missing-field counts
// from three areas.
func (g *Generators) DataIntegrity(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	orphaned := detailsOf[OrdersDetails](snap, AreaOrders).Orphaned
	noRole := detailsOf[UsersDetails](snap, AreaUsers).NoRole
	noPrice := detailsOf[ProductsDetails](snap, AreaProducts).NoPrice

	var issues []string
	if orphaned > 0 {
		issues = append(issues, fmt.Sprintf("%d orphaned orders", orphaned))
	}
	if noRole > 0 {
		issues = append(issues, fmt.Sprintf("%d users without role", noRole))
	}
	if noPrice > 0 {
		issues = append(issues, fmt.Sprintf("%d products without price", noPrice))
	}

	mark := func(n int64) string {
		if n == 0 {
			return "ok"
		}
		return "warning"
	}

	var b strings.Builder
	reportHeader(&b, "Data Integrity & Consistency Report")
	b.WriteString("## Integrity Checks\n")
	b.WriteString("| Check | Status | Issues |\n|-------|--------|--------|\n")
	fmt.Fprintf(&b, "| Orphaned Orders | %s | %d |\n", mark(orphaned), orphaned)
	fmt.Fprintf(&b, "| Users without Role | %s | %d |\n", mark(noRole), noRole)
	fmt.Fprintf(&b, "| Products without Price | %s | %d |\n\n", mark(noPrice), noPrice)
	b.WriteString("## Summary\n")
	if len(issues) == 0 {
		b.WriteString("No data integrity issues found\n")
	} else {
		fmt.Fprintf(&b, "Found %d issues:\n", len(issues))
		for _, issue := range issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}

	summary := "No issues"
	if len(issues) > 0 {
		summary = fmt.Sprintf("%d issues found", len(issues))
	}
	return ReportDraft{
		Title:   "Data Integrity & Consistency Report",
		Summary: summary,
		Content: b.String(),
		Tags:    models.StringList{"integrity", "consistency", "data"},
	}, nil
}

// SecurityAccess lists the critical secret checks and config key
// statuses. Secret values never appear in report content.
func (g *Generators) SecurityAccess(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	sec := detailsOf[SecurityDetails](snap, AreaSecurity)
	secFinding := snap.Findings[AreaSecurity]

	var b strings.Builder
	reportHeader(&b, "Security & Access Report")
	b.WriteString("## Environment Security\n")
	for _, check := range sec.Checks {
		detail := string(check.Detail)
		if detail == "" {
			detail = check.Status
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", check.Check, check.Status, detail)
	}
	b.WriteString("\n## System Keys Status\n")
	b.WriteString("| Key | Status |\n|-----|--------|\n")
	if snap.Env != nil {
		for _, v := range snap.Env.Details {
			fmt.Fprintf(&b, "| %s | %s |\n", v.Key, v.Status)
		}
	}
	b.WriteString("\n## Score\n")
	fmt.Fprintf(&b, "- Security checks passed: %d/%d\n", secFinding.Passed, secFinding.Checks)

	return ReportDraft{
		Title:   "Security & Access Report",
		Summary: fmt.Sprintf("%d/%d checks passed", secFinding.Passed, secFinding.Checks),
		Content: b.String(),
		Tags:    models.StringList{"security", "access", "environment"},
		Stats:   statsOf(snap, AreaSecurity),
	}, nil
}

var processStart = time.Now()

// SystemHealth aggregates the whole scan plus runtime metrics.
func (g *Generators) SystemHealth(ctx context.Context, snap *Snapshot) (ReportDraft, error) {
	totalChecks, totalPassed := 0, 0
	for _, f := range snap.Findings {
		totalChecks += f.Checks
		totalPassed += f.Passed
	}
	score := 0
	if totalChecks > 0 {
		score = percentOf(totalPassed, totalChecks)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	heapMB := mem.HeapAlloc / 1024 / 1024
	uptimeH := int(time.Since(processStart).Hours())

	dbFinding := snap.Findings[AreaDatabase]

	var b strings.Builder
	reportHeader(&b, "System Health & Stability Report")
	b.WriteString("## System Metrics\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Memory Usage | %dMB |\n", heapMB)
	fmt.Fprintf(&b, "| Uptime | %d hours |\n", uptimeH)
	fmt.Fprintf(&b, "| Environment | %s |\n\n", snap.Environment)
	b.WriteString("## Database Health\n")
	fmt.Fprintf(&b, "- Tables checked: %d/%d\n\n", dbFinding.Passed, dbFinding.Checks)
	b.WriteString("## Overall Health Score\n")
	fmt.Fprintf(&b, "**%d%%** (%d/%d checks passed)\n\n", score, totalPassed, totalChecks)
	b.WriteString("## Status\n")
	switch {
	case score >= 80:
		b.WriteString("System is healthy\n")
	case score >= 50:
		b.WriteString("System needs attention\n")
	default:
		b.WriteString("Critical issues detected\n")
	}

	return ReportDraft{
		Title:   "System Health & Stability Report",
		Summary: fmt.Sprintf("Health Score: %d%%", score),
		Content: b.String(),
		Tags:    models.StringList{"health", "stability", "performance"},
		Stats: models.ScanResults{
			TotalChecks: totalChecks,
			Passed:      totalPassed,
			Failed:      totalChecks - totalPassed,
			Score:       score,
		},
	}, nil
}
