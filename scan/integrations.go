package scan

import "os"

// IntegrationHealth probes whether an external integration has usable
// credentials. Probes only inspect local configuration; a scan never
// calls out to third-party APIs.
type IntegrationHealth interface {
	Name() string
	Configured() bool
	// MissingKeys lists the credential keys that are not set.
	MissingKeys() []string
}

type envIntegration struct {
	name string
	keys []string
}

func (e envIntegration) Name() string { return e.name }

func (e envIntegration) Configured() bool {
	return len(e.MissingKeys()) == 0
}

func (e envIntegration) MissingKeys() []string {
	var missing []string
	for _, key := range e.keys {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// PaymentGatewayHealth probes the payment gateway credentials.
func PaymentGatewayHealth() IntegrationHealth {
	return envIntegration{
		name: "payment_gateway",
		keys: []string{"PAYGATE_API_KEY", "PAYGATE_API_SECRET"},
	}
}

// ERPHealth probes the ERP connector credentials.
func ERPHealth() IntegrationHealth {
	return envIntegration{
		name: "erp",
		keys: []string{"ERP_CLIENT_ID", "ERP_CLIENT_SECRET"},
	}
}

type disabledIntegration struct{ name string }

func (d disabledIntegration) Name() string          { return d.name }
func (d disabledIntegration) Configured() bool      { return false }
func (d disabledIntegration) MissingKeys() []string { return nil }

// NotConfigured is the probe used when an integration module is not
// deployed with this build.
func NotConfigured(name string) IntegrationHealth {
	return disabledIntegration{name: name}
}

