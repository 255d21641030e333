package scan

import (
	"context"
	"os"

	"bitbucket.org/mmdatafocus/diagnostics_backend/models"
	"gorm.io/gorm"
)

// ScannerFunc inspects one area and returns its finding. A returned
// error means the probe itself could not run; the orchestrator folds
// it into a synthetic failed finding so the scan keeps going.
type ScannerFunc func(ctx context.Context) (models.Finding, error)

// AreaScanner pairs an area name with its probe.
type AreaScanner struct {
	Area string
	Run  ScannerFunc
}

// Typed detail payloads. These land in the findings JSON column and
// feed the classifier and report generators in-process.

type TableCheck struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
}

type DatabaseDetails struct {
	Tables      []TableCheck `json:"tables"`
	TableCount  int64        `json:"tableCount"`
	RowEstimate int64        `json:"rowEstimate"`
	UserIndexes int          `json:"userIndexes"`
}

type UsersDetails struct {
	Total     int64 `json:"total"`
	Admins    int64 `json:"admins"`
	Agents    int64 `json:"agents"`
	Customers int64 `json:"customers"`
	NoRole    int64 `json:"noRole"`
}

type OrdersDetails struct {
	Total     int64 `json:"total"`
	Paid      int64 `json:"paid"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Orphaned  int64 `json:"orphaned"`
}

type ProductsDetails struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	OutOfStock int64 `json:"outOfStock"`
	NoPrice    int64 `json:"noPrice"`
}

type TransactionsDetails struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Failed    int64 `json:"failed"`
}

type PermissionsDetails struct {
	AdminCount int                   `json:"adminCount"`
	Admins     []models.AdminSummary `json:"admins"`
}

type IntegrationStatus struct {
	Name        string   `json:"name"`
	Configured  bool     `json:"configured"`
	MissingKeys []string `json:"missingKeys,omitempty"`
}

type IntegrationsDetails struct {
	PaymentGateway IntegrationStatus `json:"paymentGateway"`
	ERP            IntegrationStatus `json:"erp"`
}

type SecurityCheck struct {
	Check  string             `json:"check"`
	Status string             `json:"status"`
	Detail models.VarStrength `json:"detail,omitempty"`
}

type SecurityDetails struct {
	Checks      []SecurityCheck `json:"checks"`
	Environment string          `json:"environment"`
}

type PaymentDataDetails struct {
	OrdersWithPayment int64 `json:"ordersWithPayment"`
	PaymentEvents     int64 `json:"paymentEvents"`
	FailedPayments    int64 `json:"failedPayments"`
}

// Scanners holds the shared dependencies of every area probe.
type Scanners struct {
	db      *gorm.DB
	scorer  *EnvScorer
	payment IntegrationHealth
	erp     IntegrationHealth

	// lastEnv keeps the typed analysis of the most recent system_keys
	// run so the orchestrator can attach it to the scan summary.
	lastEnv *EnvAnalysis
}

func NewScanners(db *gorm.DB, scorer *EnvScorer, payment, erp IntegrationHealth) *Scanners {
	return &Scanners{db: db, scorer: scorer, payment: payment, erp: erp}
}

// All returns the probes in execution order, matching AllAreas.
func (s *Scanners) All() []AreaScanner {
	return []AreaScanner{
		{Area: AreaDatabase, Run: s.ScanDatabase},
		{Area: AreaUsers, Run: s.ScanUsers},
		{Area: AreaOrders, Run: s.ScanOrders},
		{Area: AreaProducts, Run: s.ScanProducts},
		{Area: AreaTransactions, Run: s.ScanTransactions},
		{Area: AreaPermissions, Run: s.ScanPermissions},
		{Area: AreaIntegrations, Run: s.ScanIntegrations},
		{Area: AreaSecurity, Run: s.ScanSecurity},
		{Area: AreaPaymentData, Run: s.ScanPaymentData},
		{Area: AreaSystemKeys, Run: s.ScanSystemKeys},
	}
}

// EnvAnalysis returns the typed result of the last system_keys probe,
// nil when that area was not scanned.
func (s *Scanners) EnvAnalysis() *EnvAnalysis {
	return s.lastEnv
}

var requiredTables = []string{"users", "orders", "products"}

// ScanDatabase verifies the required tables exist, pulls coarse schema
// stats and checks the users table carries secondary indexes.
func (s *Scanners) ScanDatabase(ctx context.Context) (models.Finding, error) {
	db := s.db.WithContext(ctx)
	finding := models.Finding{Checks: 5}
	details := DatabaseDetails{}

	for _, table := range requiredTables {
		present := db.Migrator().HasTable(table)
		details.Tables = append(details.Tables, TableCheck{Name: table, Present: present})
		if present {
			finding.Passed++
		} else {
			finding.Failed++
		}
	}

	row := db.Raw(
		"SELECT COUNT(*), COALESCE(SUM(table_rows), 0) FROM information_schema.tables WHERE table_schema = DATABASE()",
	).Row()
	if err := row.Scan(&details.TableCount, &details.RowEstimate); err != nil {
		finding.Failed++
	} else {
		finding.Passed++
	}

	// A lone primary key means no secondary indexes on users.
	indexes, err := db.Migrator().GetIndexes(&models.User{})
	if err != nil {
		finding.Warnings++
	} else {
		details.UserIndexes = len(indexes)
		if len(indexes) > 1 {
			finding.Passed++
		} else {
			finding.Warnings++
		}
	}

	finding.Details = details
	return finding, nil
}

// ScanUsers checks the user base has at least one admin and flags
// accounts with no role. One failing check when no admin exists.
func (s *Scanners) ScanUsers(ctx context.Context) (models.Finding, error) {
	db := s.db.WithContext(ctx)
	details := UsersDetails{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&details.Total, db.Model(&models.User{})},
		{&details.Admins, db.Model(&models.User{}).Where("role = ?", "admin")},
		{&details.Agents, db.Model(&models.User{}).Where("role = ?", "agent")},
		{&details.Customers, db.Model(&models.User{}).Where("role = ? OR role IS NULL", "customer")},
		{&details.NoRole, db.Model(&models.User{}).Where("role IS NULL")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return models.Finding{}, err
		}
	}

	finding := models.Finding{Checks: 4, Passed: 3, Details: details}
	if details.Admins == 0 {
		finding.Failed++
		finding.Passed--
	}
	if details.NoRole > 0 {
		finding.Warnings++
	}
	return finding, nil
}

// ScanOrders counts orders per status and flags orphans, orders whose
// owning user is gone.
func (s *Scanners) ScanOrders(ctx context.Context) (models.Finding, error) {
	db := s.db.WithContext(ctx)
	details := OrdersDetails{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&details.Total, db.Model(&models.Order{})},
		{&details.Paid, db.Model(&models.Order{}).Where("status = ?", "paid")},
		{&details.Pending, db.Model(&models.Order{}).Where("status = ?", "pending")},
		{&details.Completed, db.Model(&models.Order{}).Where("status = ?", "completed")},
		{&details.Cancelled, db.Model(&models.Order{}).Where("status = ?", "cancelled")},
		{&details.Orphaned, db.Model(&models.Order{}).Where("user_id IS NULL")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return models.Finding{}, err
		}
	}

	finding := models.Finding{Checks: 4, Passed: 3, Details: details}
	if details.Orphaned > 0 {
		finding.Warnings++
	}
	return finding, nil
}

// ScanProducts flags products with no price and excessive out-of-stock
// counts. Neither condition fails the area.
func (s *Scanners) ScanProducts(ctx context.Context) (models.Finding, error) {
	db := s.db.WithContext(ctx)
	details := ProductsDetails{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&details.Total, db.Model(&models.Product{})},
		{&details.Active, db.Model(&models.Product{}).Where("status = ?", "active")},
		{&details.OutOfStock, db.Model(&models.Product{}).Where("stock <= 0")},
		{&details.NoPrice, db.Model(&models.Product{}).Where("price IS NULL")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return models.Finding{}, err
		}
	}

	finding := models.Finding{Checks: 3, Passed: 2, Details: details}
	if details.NoPrice > 0 {
		finding.Warnings++
	}
	if details.OutOfStock > 10 {
		finding.Warnings++
	}
	return finding, nil
}

// ScanTransactions flags an unusual volume of failed transactions.
func (s *Scanners) ScanTransactions(ctx context.Context) (models.Finding, error) {
	db := s.db.WithContext(ctx)
	details := TransactionsDetails{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&details.Total, db.Model(&models.Transaction{})},
		{&details.Completed, db.Model(&models.Transaction{}).Where("status = ?", "completed")},
		{&details.Pending, db.Model(&models.Transaction{}).Where("status = ?", "pending")},
		{&details.Failed, db.Model(&models.Transaction{}).Where("status = ?", "failed")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return models.Finding{}, err
		}
	}

	finding := models.Finding{Checks: 2, Passed: 2, Details: details}
	if details.Failed > 10 {
		finding.Warnings++
	}
	return finding, nil
}

// ScanPermissions inspects the admin roster. Failing when no admin
// exists, warning when the roster looks too wide.
func (s *Scanners) ScanPermissions(ctx context.Context) (models.Finding, error) {
	admins, err := models.ListAdminSummaries(s.db.WithContext(ctx))
	if err != nil {
		return models.Finding{}, err
	}

	details := PermissionsDetails{AdminCount: len(admins), Admins: admins}
	finding := models.Finding{Checks: 2, Passed: 1, Details: details}
	if len(admins) == 0 {
		finding.Failed++
	} else {
		finding.Passed++
	}
	if len(admins) > 10 {
		finding.Warnings++
	}
	return finding, nil
}

// ScanIntegrations probes the payment gateway and ERP credentials. An
// unconfigured integration is a warning, never a failure.
func (s *Scanners) ScanIntegrations(ctx context.Context) (models.Finding, error) {
	details := IntegrationsDetails{
		PaymentGateway: probeStatus(s.payment),
		ERP:            probeStatus(s.erp),
	}

	finding := models.Finding{Checks: 2, Details: details}
	for _, status := range []IntegrationStatus{details.PaymentGateway, details.ERP} {
		if status.Configured {
			finding.Passed++
		} else {
			finding.Warnings++
		}
	}
	return finding, nil
}

func probeStatus(probe IntegrationHealth) IntegrationStatus {
	return IntegrationStatus{
		Name:        probe.Name(),
		Configured:  probe.Configured(),
		MissingKeys: probe.MissingKeys(),
	}
}

var criticalSecrets = []string{"API_SECRET", "DB_PASSWORD", "SESSION_SECRET"}

// ScanSecurity checks the critical secrets are set and long enough,
// and that the service runs in production mode.
func (s *Scanners) ScanSecurity(ctx context.Context) (models.Finding, error) {
	finding := models.Finding{Checks: 4}
	details := SecurityDetails{Environment: os.Getenv("GO_ENV")}

	for _, key := range criticalSecrets {
		value := os.Getenv(key)
		check := SecurityCheck{Check: key}
		switch {
		case len(value) < 10:
			check.Status = "missing_or_weak"
			finding.Failed++
		case len(value) >= 32:
			check.Status = "ok"
			check.Detail = models.StrengthStrong
			finding.Passed++
		default:
			check.Status = "ok"
			check.Detail = models.StrengthWeak
			finding.Passed++
		}
		details.Checks = append(details.Checks, check)
	}

	envCheck := SecurityCheck{Check: "environment"}
	if details.Environment == "production" {
		envCheck.Status = "ok"
		finding.Passed++
	} else {
		envCheck.Status = "non_production"
		finding.Warnings++
	}
	details.Checks = append(details.Checks, envCheck)

	finding.Details = details
	return finding, nil
}

// ScanPaymentData flags an unusual volume of failed payment events.
func (s *Scanners) ScanPaymentData(ctx context.Context) (models.Finding, error) {
	db := s.db.WithContext(ctx)
	details := PaymentDataDetails{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&details.OrdersWithPayment, db.Model(&models.Order{}).Where("payment_method IS NOT NULL AND payment_method <> ''")},
		{&details.PaymentEvents, db.Model(&models.PaymentEvent{})},
		{&details.FailedPayments, db.Model(&models.PaymentEvent{}).Where("status = ?", "failed")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return models.Finding{}, err
		}
	}

	finding := models.Finding{Checks: 3, Passed: 2, Details: details}
	if details.FailedPayments > 10 {
		finding.Warnings++
	}
	return finding, nil
}

// ScanSystemKeys runs the weighted environment scorer.
func (s *Scanners) ScanSystemKeys(ctx context.Context) (models.Finding, error) {
	finding, analysis := s.scorer.Score()
	s.lastEnv = analysis
	return finding, nil
}
