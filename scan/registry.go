package scan

import (
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
	"github.com/google/uuid"
)

// Area names, in execution order. Scanners always run in this order so
// progress advances deterministically.
const (
	AreaDatabase     = "database"
	AreaUsers        = "users"
	AreaOrders       = "orders"
	AreaProducts     = "products"
	AreaTransactions = "transactions"
	AreaPermissions  = "permissions"
	AreaIntegrations = "integrations"
	AreaSecurity     = "security"
	AreaPaymentData  = "payment_data"
	AreaSystemKeys   = "system_keys"
)

var allAreas = []string{
	AreaDatabase, AreaUsers, AreaOrders, AreaProducts, AreaTransactions,
	AreaPermissions, AreaIntegrations, AreaSecurity, AreaPaymentData,
	AreaSystemKeys,
}

// AllAreas returns the full scannable area list (copy; callers may not
// mutate the catalogue).
func AllAreas() []string {
	out := make([]string, len(allAreas))
	copy(out, allAreas)
	return out
}

// KnownArea reports whether name is a scannable area.
func KnownArea(name string) bool {
	for _, a := range allAreas {
		if a == name {
			return true
		}
	}
	return false
}

// Standard report types, in generation order.
const (
	ReportFinancialPayments   = "financial_payments"
	ReportOrdersTransactions  = "orders_transactions"
	ReportUsersPermissions    = "users_permissions"
	ReportAdminAuditTrail     = "admin_audit_trail"
	ReportIntegrationsWebhook = "integrations_webhooks"
	ReportDataIntegrity       = "data_integrity"
	ReportSecurityAccess      = "security_access"
	ReportSystemHealth        = "system_health"
)

// Enterprise report types. reports_reliability must stay last in the
// catalogue: it reports on the success of every other generator in the
// same run.
const (
	ReportGoLiveReadiness         = "go_live_readiness"
	ReportFinancialReconciliation = "financial_reconciliation"
	ReportMissingKeysImpact       = "missing_keys_impact"
	ReportRiskMatrix              = "risk_matrix"
	ReportReportsReliability      = "reports_reliability"
)

var standardReportTypes = []string{
	ReportFinancialPayments,
	ReportOrdersTransactions,
	ReportUsersPermissions,
	ReportAdminAuditTrail,
	ReportIntegrationsWebhook,
	ReportDataIntegrity,
	ReportSecurityAccess,
	ReportSystemHealth,
}

var enterpriseReportTypes = []string{
	ReportGoLiveReadiness,
	ReportFinancialReconciliation,
	ReportMissingKeysImpact,
	ReportRiskMatrix,
	ReportReportsReliability,
}

func StandardReportTypes() []string {
	out := make([]string, len(standardReportTypes))
	copy(out, standardReportTypes)
	return out
}

func EnterpriseReportTypes() []string {
	out := make([]string, len(enterpriseReportTypes))
	copy(out, enterpriseReportTypes)
	return out
}

// reportDomains is the fixed report-type -> domain tag mapping the UI
// filters on. Must stay stable across versions.
var reportDomains = map[string]string{
	ReportFinancialPayments:   "audit",
	ReportOrdersTransactions:  "audit",
	ReportUsersPermissions:    "security",
	ReportAdminAuditTrail:     "audit",
	ReportIntegrationsWebhook: "integration",
	ReportDataIntegrity:       "performance",
	ReportSecurityAccess:      "security",
	ReportSystemHealth:        "performance",

	ReportGoLiveReadiness:         "audit",
	ReportFinancialReconciliation: "audit",
	ReportMissingKeysImpact:       "security",
	ReportRiskMatrix:              "security",
	ReportReportsReliability:      "performance",
}

// ReportDomain maps a report type key to its domain tag.
func ReportDomain(reportType string) string {
	if d, ok := reportDomains[reportType]; ok {
		return d
	}
	return "custom"
}

// ConfigItem is one entry of the weighted environment registry.
type ConfigItem struct {
	Key         string
	Weight      int
	Category    string
	Priority    models.Priority
	Description string
}

// Registry is the immutable weighted config-item list. Injected into
// the scorer and orchestrator so tests can substitute a smaller one.
type Registry struct {
	items       []ConfigItem
	totalWeight int
}

func NewRegistry(items []ConfigItem) *Registry {
	copied := make([]ConfigItem, len(items))
	copy(copied, items)
	total := 0
	for _, item := range copied {
		total += item.Weight
	}
	return &Registry{items: copied, totalWeight: total}
}

func (r *Registry) Items() []ConfigItem {
	out := make([]ConfigItem, len(r.items))
	copy(out, r.items)
	return out
}

// TotalWeight is fixed for a given registry version.
func (r *Registry) TotalWeight() int {
	return r.totalWeight
}

func (r *Registry) Len() int {
	return len(r.items)
}

// DefaultRegistry is the production weighted registry. Weights are
// percentage-style contributions; the scorer normalizes against
// TotalWeight, so they do not need to add up to 100.
func DefaultRegistry() *Registry {
	return NewRegistry([]ConfigItem{
		{Key: "API_SECRET", Weight: 10, Category: "security", Priority: models.PriorityCritical, Description: "JWT signing secret for admin authentication"},
		{Key: "SESSION_SECRET", Weight: 8, Category: "security", Priority: models.PriorityCritical, Description: "Session cookie encryption secret"},
		{Key: "DB_PASSWORD", Weight: 10, Category: "database", Priority: models.PriorityCritical, Description: "MySQL password for the platform database"},
		{Key: "PAYGATE_API_KEY", Weight: 6, Category: "payments", Priority: models.PriorityHigh, Description: "Payment gateway API key"},
		{Key: "PAYGATE_API_SECRET", Weight: 6, Category: "payments", Priority: models.PriorityHigh, Description: "Payment gateway request signing secret"},
		{Key: "PAYGATE_WEBHOOK_SECRET", Weight: 4, Category: "payments", Priority: models.PriorityMedium, Description: "Payment gateway webhook verification secret"},
		{Key: "ERP_CLIENT_ID", Weight: 5, Category: "integrations", Priority: models.PriorityHigh, Description: "ERP OAuth client id"},
		{Key: "ERP_CLIENT_SECRET", Weight: 5, Category: "integrations", Priority: models.PriorityHigh, Description: "ERP OAuth client secret"},
		{Key: "SMS_ACCOUNT_SID", Weight: 3, Category: "communications", Priority: models.PriorityMedium, Description: "SMS provider account sid"},
		{Key: "SMS_AUTH_TOKEN", Weight: 3, Category: "communications", Priority: models.PriorityMedium, Description: "SMS provider auth token"},
		{Key: "SITE_URL", Weight: 2, Category: "config", Priority: models.PriorityLow, Description: "Public site URL"},
		{Key: "GO_ENV", Weight: 3, Category: "config", Priority: models.PriorityMedium, Description: "Runtime environment (production/development)"},
	})
}

// NewScanID builds a practically-unique scan id: millisecond timestamp
// in base36 plus a random suffix. Not cryptographically guaranteed;
// the unique index on systemscans.scan_id catches the pathological case.
func NewScanID() string {
	return "SCAN-" + idSuffix(6)
}

// NewReportID builds a practically-unique report id.
func NewReportID() string {
	return "RPT-" + idSuffix(4)
}

func idSuffix(randLen int) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	rand := strings.ReplaceAll(uuid.NewString(), "-", "")[:randLen]
	return strings.ToUpper(ts + "-" + rand)
}
