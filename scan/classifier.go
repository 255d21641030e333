package scan

import (
	"fmt"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

// Issue is one human-readable problem with a suggested fix.
type Issue struct {
	Message  string          `json:"message"`
	Severity models.Severity `json:"severity"`
	Fix      string          `json:"fix"`
}

// IssueCategory groups issues for one functional bucket. Severity is
// the worst severity among the items, SeverityOK when the bucket is
// clean.
type IssueCategory struct {
	Title    string          `json:"title"`
	Severity models.Severity `json:"severity"`
	Items    []Issue         `json:"items"`
}

type IssuesSummary struct {
	TotalErrors   int `json:"totalErrors"`
	TotalWarnings int `json:"totalWarnings"`
	TotalInfo     int `json:"totalInfo"`
	TotalIssues   int `json:"totalIssues"`
}

// IssuesLog is the classified view of a scan, bucketed by functional
// category. Every bucket is always present so the UI renders a stable
// layout.
type IssuesLog struct {
	Categories map[string]IssueCategory `json:"categories"`
	Summary    IssuesSummary            `json:"summary"`
}

var issueBuckets = []struct {
	key   string
	title string
}{
	{"database", "Database"},
	{"users", "Users & Roles"},
	{"orders", "Orders"},
	{"products", "Products"},
	{"payments", "Payments"},
	{"integrations", "Integrations"},
	{"security", "Security"},
	{"envVars", "Environment Configuration"},
}

// Classify turns raw findings into the bucketed issues log. It reads
// only the snapshot; classification never touches the database.
func Classify(snap *Snapshot) *IssuesLog {
	log := &IssuesLog{Categories: map[string]IssueCategory{}}

	add := func(bucket string, issues ...Issue) {
		cat := log.Categories[bucket]
		cat.Items = append(cat.Items, issues...)
		log.Categories[bucket] = cat
	}

	classifyDatabase(snap, func(i ...Issue) { add("database", i...) })
	classifyUsers(snap, func(i ...Issue) { add("users", i...) })
	classifyOrders(snap, func(i ...Issue) { add("orders", i...) })
	classifyProducts(snap, func(i ...Issue) { add("products", i...) })
	classifyPayments(snap, func(i ...Issue) { add("payments", i...) })
	classifyIntegrations(snap, func(i ...Issue) { add("integrations", i...) })
	classifySecurity(snap, func(i ...Issue) { add("security", i...) })
	classifyEnvVars(snap, func(i ...Issue) { add("envVars", i...) })

	for _, bucket := range issueBuckets {
		cat := log.Categories[bucket.key]
		cat.Title = bucket.title
		cat.Severity = models.SeverityOK
		for _, item := range cat.Items {
			if item.Severity.Rank() > cat.Severity.Rank() {
				cat.Severity = item.Severity
			}
			switch item.Severity {
			case models.SeverityError:
				log.Summary.TotalErrors++
			case models.SeverityWarning:
				log.Summary.TotalWarnings++
			case models.SeverityInfo:
				log.Summary.TotalInfo++
			}
			log.Summary.TotalIssues++
		}
		log.Categories[bucket.key] = cat
	}
	return log
}

type addFunc func(...Issue)

func scanFailedIssue(area string, f models.Finding) (Issue, bool) {
	if f.Error == "" {
		return Issue{}, false
	}
	return Issue{
		Message:  fmt.Sprintf("The %s scan failed to run: %s", area, f.Error),
		Severity: models.SeverityError,
		Fix:      "Check service connectivity and re-run the scan",
	}, true
}

func classifyDatabase(snap *Snapshot, add addFunc) {
	f, ok := snap.Findings[AreaDatabase]
	if !ok {
		return
	}
	if issue, failed := scanFailedIssue(AreaDatabase, f); failed {
		add(issue)
		return
	}
	d, ok := f.Details.(DatabaseDetails)
	if !ok {
		return
	}
	for _, table := range d.Tables {
		if !table.Present {
			add(Issue{
				Message:  fmt.Sprintf("Required table %s is missing", table.Name),
				Severity: models.SeverityError,
				Fix:      "Run the platform migrations before going live",
			})
		}
	}
	if d.UserIndexes <= 1 {
		add(Issue{
			Message:  "The users table has no secondary indexes",
			Severity: models.SeverityWarning,
			Fix:      "Add indexes on the role and email columns",
		})
	}
}

func classifyUsers(snap *Snapshot, add addFunc) {
	f, ok := snap.Findings[AreaUsers]
	if !ok {
		return
	}
	if issue, failed := scanFailedIssue(AreaUsers, f); failed {
		add(issue)
		return
	}
	d, ok := f.Details.(UsersDetails)
	if !ok {
		return
	}
	if d.Admins == 0 {
		add(Issue{
			Message:  "No admin user exists",
			Severity: models.SeverityError,
			Fix:      "Create at least one administrator account",
		})
	}
	if d.NoRole > 0 {
		add(Issue{
			Message:  fmt.Sprintf("%d users have no role assigned", d.NoRole),
			Severity: models.SeverityWarning,
			Fix:      "Assign a role to every user account",
		})
	}
}

func classifyOrders(snap *Snapshot, add addFunc) {
	f, ok := snap.Findings[AreaOrders]
	if !ok {
		return
	}
	if issue, failed := scanFailedIssue(AreaOrders, f); failed {
		add(issue)
		return
	}
	d, ok := f.Details.(OrdersDetails)
	if !ok {
		return
	}
	if d.Orphaned > 0 {
		add(Issue{
			Message:  fmt.Sprintf("%d orphaned orders reference no user", d.Orphaned),
			Severity: models.SeverityWarning,
			Fix:      "Reassign or archive orders without an owning user",
		})
	}
}

func classifyProducts(snap *Snapshot, add addFunc) {
	f, ok := snap.Findings[AreaProducts]
	if !ok {
		return
	}
	if issue, failed := scanFailedIssue(AreaProducts, f); failed {
		add(issue)
		return
	}
	d, ok := f.Details.(ProductsDetails)
	if !ok {
		return
	}
	if d.NoPrice > 0 {
		add(Issue{
			Message:  fmt.Sprintf("%d products have no price set", d.NoPrice),
			Severity: models.SeverityWarning,
			Fix:      "Set a price for every sellable product",
		})
	}
	if d.OutOfStock > 10 {
		add(Issue{
			Message:  fmt.Sprintf("%d products are out of stock", d.OutOfStock),
			Severity: models.SeverityWarning,
			Fix:      "Restock or archive out-of-stock products",
		})
	}
}

func classifyPayments(snap *Snapshot, add addFunc) {
	if f, ok := snap.Findings[AreaPaymentData]; ok {
		if issue, failed := scanFailedIssue(AreaPaymentData, f); failed {
			add(issue)
		} else if d, ok := f.Details.(PaymentDataDetails); ok && d.FailedPayments > 10 {
			add(Issue{
				Message:  fmt.Sprintf("%d failed payment events recorded", d.FailedPayments),
				Severity: models.SeverityWarning,
				Fix:      "Review the payment gateway failure log",
			})
		}
	}
	if f, ok := snap.Findings[AreaTransactions]; ok {
		if issue, failed := scanFailedIssue(AreaTransactions, f); failed {
			add(issue)
		} else if d, ok := f.Details.(TransactionsDetails); ok && d.Failed > 10 {
			add(Issue{
				Message:  fmt.Sprintf("%d failed transactions recorded", d.Failed),
				Severity: models.SeverityWarning,
				Fix:      "Investigate the recent transaction failures",
			})
		}
	}
}

func classifyIntegrations(snap *Snapshot, add addFunc) {
	f, ok := snap.Findings[AreaIntegrations]
	if !ok {
		return
	}
	if issue, failed := scanFailedIssue(AreaIntegrations, f); failed {
		add(issue)
		return
	}
	d, ok := f.Details.(IntegrationsDetails)
	if !ok {
		return
	}
	for _, status := range []IntegrationStatus{d.PaymentGateway, d.ERP} {
		if !status.Configured {
			add(Issue{
				Message:  fmt.Sprintf("Integration %s is not configured", status.Name),
				Severity: models.SeverityWarning,
				Fix:      fmt.Sprintf("Set the %s credentials to enable the integration", status.Name),
			})
		}
	}
}

func classifySecurity(snap *Snapshot, add addFunc) {
	f, ok := snap.Findings[AreaSecurity]
	if !ok {
		return
	}
	if issue, failed := scanFailedIssue(AreaSecurity, f); failed {
		add(issue)
		return
	}
	d, ok := f.Details.(SecurityDetails)
	if !ok {
		return
	}
	for _, check := range d.Checks {
		switch {
		case check.Status == "missing_or_weak":
			add(Issue{
				Message:  fmt.Sprintf("Critical secret %s is missing or too short", check.Check),
				Severity: models.SeverityError,
				Fix:      fmt.Sprintf("Set %s to a random value of at least 32 characters", check.Check),
			})
		case check.Status == "non_production":
			add(Issue{
				Message:  "Service is not running in production mode",
				Severity: models.SeverityWarning,
				Fix:      "Set GO_ENV=production on the live environment",
			})
		case check.Detail == models.StrengthWeak:
			add(Issue{
				Message:  fmt.Sprintf("Secret %s is shorter than recommended", check.Check),
				Severity: models.SeverityWarning,
				Fix:      fmt.Sprintf("Rotate %s to a value of at least 32 characters", check.Check),
			})
		}
	}
}

func classifyEnvVars(snap *Snapshot, add addFunc) {
	f, ok := snap.Findings[AreaSystemKeys]
	if !ok {
		return
	}
	if issue, failed := scanFailedIssue(AreaSystemKeys, f); failed {
		add(issue)
		return
	}
	for _, missing := range f.MissingVars {
		severity := models.SeverityInfo
		switch missing.Priority {
		case models.PriorityCritical:
			severity = models.SeverityError
		case models.PriorityHigh:
			severity = models.SeverityWarning
		}
		add(Issue{
			Message:  fmt.Sprintf("Missing configuration %s (%s)", missing.Key, missing.Description),
			Severity: severity,
			Fix:      fmt.Sprintf("Configure %s to gain %d%% of the environment score", missing.Key, missing.PercentageGain),
		})
	}
}
