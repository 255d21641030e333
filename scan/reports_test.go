package scan

import (
	"context"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
)

// Generators that read only the snapshot are tested DB-free; the
// Generators receiver tolerates a nil handle for those.

func TestOrdersTransactionsReport_RendersCounts(t *testing.T) {
	g := NewGenerators(nil)
	snap := &Snapshot{Findings: map[string]models.Finding{
		AreaOrders: {
			Checks: 4, Passed: 3, Warnings: 1,
			Details: OrdersDetails{Total: 120, Paid: 80, Pending: 10, Completed: 25, Cancelled: 5, Orphaned: 2},
		},
		AreaTransactions: {
			Checks: 2, Passed: 2,
			Details: TransactionsDetails{Total: 95, Completed: 90, Failed: 5},
		},
	}}

	draft, err := g.OrdersTransactions(context.Background(), snap)
	if err != nil {
		t.Fatalf("OrdersTransactions error: %v", err)
	}
	if draft.Summary != "120 orders, 80 paid" {
		t.Fatalf("unexpected summary %q", draft.Summary)
	}
	for _, want := range []string{"| Total | 120 |", "| Paid | 80 |", "Orphaned Orders: 2", "- Failed: 5"} {
		if !strings.Contains(draft.Content, want) {
			t.Fatalf("expected content to contain %q", want)
		}
	}
}

func TestUsersPermissionsReport_ListsAdminRoster(t *testing.T) {
	g := NewGenerators(nil)
	snap := &Snapshot{Findings: map[string]models.Finding{
		AreaUsers: {
			Checks: 4, Passed: 3,
			Details: UsersDetails{Total: 300, Admins: 2, Agents: 10, Customers: 288},
		},
		AreaPermissions: {
			Checks: 2, Passed: 2,
			Details: PermissionsDetails{
				AdminCount: 2,
				Admins: []models.AdminSummary{
					{Name: "Root Admin", HasPermissions: true},
					{Name: "Backup Admin", HasPermissions: false},
				},
			},
		},
	}}

	draft, err := g.UsersPermissions(context.Background(), snap)
	if err != nil {
		t.Fatalf("UsersPermissions error: %v", err)
	}
	if draft.Summary != "300 users, 2 admins" {
		t.Fatalf("unexpected summary %q", draft.Summary)
	}
	if !strings.Contains(draft.Content, "- Root Admin: full") {
		t.Fatal("expected admin with permissions marked full")
	}
	if !strings.Contains(draft.Content, "- Backup Admin: limited") {
		t.Fatal("expected admin without permissions marked limited")
	}
}

func TestDataIntegrityReport_NoIssues(t *testing.T) {
	g := NewGenerators(nil)
	snap := &Snapshot{Findings: map[string]models.Finding{
		AreaOrders:   {Details: OrdersDetails{}},
		AreaUsers:    {Details: UsersDetails{}},
		AreaProducts: {Details: ProductsDetails{}},
	}}

	draft, err := g.DataIntegrity(context.Background(), snap)
	if err != nil {
		t.Fatalf("DataIntegrity error: %v", err)
	}
	if draft.Summary != "No issues" {
		t.Fatalf("unexpected summary %q", draft.Summary)
	}
	if !strings.Contains(draft.Content, "No data integrity issues found") {
		t.Fatal("expected clean summary line")
	}
}

func TestDataIntegrityReport_CollectsCrossAreaIssues(t *testing.T) {
	g := NewGenerators(nil)
	snap := &Snapshot{Findings: map[string]models.Finding{
		AreaOrders:   {Details: OrdersDetails{Orphaned: 3}},
		AreaUsers:    {Details: UsersDetails{NoRole: 7}},
		AreaProducts: {Details: ProductsDetails{NoPrice: 1}},
	}}

	draft, err := g.DataIntegrity(context.Background(), snap)
	if err != nil {
		t.Fatalf("DataIntegrity error: %v", err)
	}
	if draft.Summary != "3 issues found" {
		t.Fatalf("unexpected summary %q", draft.Summary)
	}
	for _, want := range []string{"3 orphaned orders", "7 users without role", "1 products without price"} {
		if !strings.Contains(draft.Content, want) {
			t.Fatalf("expected content to contain %q", want)
		}
	}
}

func TestSecurityAccessReport_NeverContainsSecretValues(t *testing.T) {
	g := NewGenerators(nil)
	snap := &Snapshot{
		Findings: map[string]models.Finding{
			AreaSecurity: {
				Checks: 4, Passed: 3, Failed: 1,
				Details: SecurityDetails{
					Checks: []SecurityCheck{
						{Check: "API_SECRET", Status: "ok", Detail: models.StrengthStrong},
						{Check: "DB_PASSWORD", Status: "missing_or_weak"},
					},
					Environment: "production",
				},
			},
		},
		Env: &EnvAnalysis{
			Details: []models.VarDetail{
				{Key: "API_SECRET", Status: "configured"},
				{Key: "SITE_URL", Status: "missing"},
			},
		},
	}

	draft, err := g.SecurityAccess(context.Background(), snap)
	if err != nil {
		t.Fatalf("SecurityAccess error: %v", err)
	}
	if draft.Summary != "3/4 checks passed" {
		t.Fatalf("unexpected summary %q", draft.Summary)
	}
	if !strings.Contains(draft.Content, "| API_SECRET | configured |") {
		t.Fatal("expected key status table")
	}
	// Status and strength labels only; values must never leak.
	if strings.Contains(draft.Content, "hunter2") {
		t.Fatal("secret value leaked into report")
	}
}

func TestSystemHealthReport_ScoreBands(t *testing.T) {
	g := NewGenerators(nil)

	healthy := &Snapshot{Environment: "production", Findings: map[string]models.Finding{
		AreaDatabase: {Checks: 5, Passed: 5},
		AreaUsers:    {Checks: 5, Passed: 4},
	}}
	draft, err := g.SystemHealth(context.Background(), healthy)
	if err != nil {
		t.Fatalf("SystemHealth error: %v", err)
	}
	if draft.Summary != "Health Score: 90%" {
		t.Fatalf("unexpected summary %q", draft.Summary)
	}
	if !strings.Contains(draft.Content, "System is healthy") {
		t.Fatal("expected healthy band at 90%")
	}

	degraded := &Snapshot{Findings: map[string]models.Finding{
		AreaDatabase: {Checks: 10, Passed: 6},
	}}
	draft, err = g.SystemHealth(context.Background(), degraded)
	if err != nil {
		t.Fatalf("SystemHealth error: %v", err)
	}
	if !strings.Contains(draft.Content, "System needs attention") {
		t.Fatal("expected attention band at 60%")
	}

	critical := &Snapshot{Findings: map[string]models.Finding{
		AreaDatabase: {Checks: 10, Passed: 2},
	}}
	draft, err = g.SystemHealth(context.Background(), critical)
	if err != nil {
		t.Fatalf("SystemHealth error: %v", err)
	}
	if !strings.Contains(draft.Content, "Critical issues detected") {
		t.Fatal("expected critical band at 20%")
	}
}

func TestIntegrationsWebhooksReport_Recommendations(t *testing.T) {
	g := NewGenerators(nil)
	snap := &Snapshot{Findings: map[string]models.Finding{
		AreaIntegrations: {
			Checks: 2, Passed: 1, Warnings: 1,
			Details: IntegrationsDetails{
				PaymentGateway: IntegrationStatus{Name: "payment_gateway", Configured: true},
				ERP:            IntegrationStatus{Name: "erp", Configured: false, MissingKeys: []string{"ERP_CLIENT_ID"}},
			},
		},
	}}

	draft, err := g.IntegrationsWebhooks(context.Background(), snap)
	if err != nil {
		t.Fatalf("IntegrationsWebhooks error: %v", err)
	}
	if !strings.Contains(draft.Content, "Configure the ERP connector") {
		t.Fatal("expected ERP recommendation")
	}
	if strings.Contains(draft.Content, "Configure the payment gateway for payment processing") {
		t.Fatal("unexpected gateway recommendation for configured integration")
	}
}

// A generator must not depend on another generator's output: the same
// snapshot yields the same draft regardless of what ran before it.
func TestGenerators_IndependentOfExecutionOrder(t *testing.T) {
	g := NewGenerators(nil)
	snap := &Snapshot{Findings: map[string]models.Finding{
		AreaOrders: {Checks: 4, Passed: 3, Details: OrdersDetails{Total: 10, Paid: 4}},
	}}

	first, err := g.OrdersTransactions(context.Background(), snap)
	if err != nil {
		t.Fatalf("OrdersTransactions error: %v", err)
	}
	if _, err := g.RiskMatrix(context.Background(), snap); err != nil {
		t.Fatalf("RiskMatrix error: %v", err)
	}
	second, err := g.OrdersTransactions(context.Background(), snap)
	if err != nil {
		t.Fatalf("OrdersTransactions error: %v", err)
	}
	if first.Summary != second.Summary {
		t.Fatalf("generator output changed across runs: %q vs %q", first.Summary, second.Summary)
	}
}
