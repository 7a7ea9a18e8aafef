// Package domain contains the core domain models for the infrastructure compiler.
// These models are provider-agnostic and describe one request/response cycle.
package domain

// Intent is the classified purpose of a natural-language command
type Intent string

const (
	IntentCreateCluster      Intent = "create_cluster"
	IntentCreateDatabase     Intent = "create_database"
	IntentCreateWebApp       Intent = "create_webapp"
	IntentCreateLoadBalancer Intent = "create_loadbalancer"
	IntentCreateStorage      Intent = "create_storage"
	IntentCreateNetwork      Intent = "create_network"
	IntentUnknown            Intent = "unknown"
)

// String returns the wire name of the intent
func (i Intent) String() string {
	return string(i)
}

// IsKnown reports whether the intent resolved to a resource family
func (i Intent) IsKnown() bool {
	switch i {
	case IntentCreateCluster, IntentCreateDatabase, IntentCreateWebApp,
		IntentCreateLoadBalancer, IntentCreateStorage, IntentCreateNetwork:
		return true
	default:
		return false
	}
}

// CommandContext carries optional caller-supplied hints.
// Values outside the supported sets are ignored during resolution.
type CommandContext struct {
	Provider    string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Environment string   `json:"environment,omitempty" yaml:"environment,omitempty"`
	Budget      *float64 `json:"budget,omitempty" yaml:"budget,omitempty"`
}

// Command is a single compile request
type Command struct {
	Text    string          `json:"command"`
	Context *CommandContext `json:"context,omitempty"`
}

// Entities holds parameters extracted from command text.
// A nil field means the command did not mention it; synthesizers apply
// their own defaults at render time.
type Entities struct {
	HighAvailability *bool `json:"highAvailability,omitempty" yaml:"highAvailability,omitempty"`
	AutoScaling      *bool `json:"autoScaling,omitempty" yaml:"autoScaling,omitempty"`
	Nodes            *int  `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Replicas         *int  `json:"replicas,omitempty" yaml:"replicas,omitempty"`
	StorageSize      *int  `json:"storageSize,omitempty" yaml:"storageSize,omitempty"`
	Memory           *int  `json:"memory,omitempty" yaml:"memory,omitempty"`
	CPU              *int  `json:"cpu,omitempty" yaml:"cpu,omitempty"`
}

// HA reports whether high availability was requested
func (e Entities) HA() bool {
	return e.HighAvailability != nil && *e.HighAvailability
}

// AutoScale reports whether auto scaling was requested
func (e Entities) AutoScale() bool {
	return e.AutoScaling != nil && *e.AutoScaling
}

// IntOr returns *v, or def when v is nil
func IntOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// ResolvedContext is the fully defaulted provider and environment for a command
type ResolvedContext struct {
	Provider    CloudProvider `json:"provider"`
	Environment Environment   `json:"environment"`
}

// ArtifactFormat names a rendered output format
type ArtifactFormat string

const (
	FormatTerraform      ArtifactFormat = "terraform"
	FormatCloudFormation ArtifactFormat = "cloudformation"
	FormatKubernetes     ArtifactFormat = "kubernetes"
	FormatPulumi         ArtifactFormat = "pulumi"
)

// ParseArtifactFormat parses a format name, returning false if unknown
func ParseArtifactFormat(s string) (ArtifactFormat, bool) {
	switch f := ArtifactFormat(s); f {
	case FormatTerraform, FormatCloudFormation, FormatKubernetes, FormatPulumi:
		return f, true
	default:
		return "", false
	}
}

// GeneratedCode maps a format to its rendered text. Only formats that apply
// to the intent are present.
type GeneratedCode map[ArtifactFormat]string

// CostLine is one itemized entry of a monthly estimate
type CostLine struct {
	Resource string  `json:"resource" yaml:"resource"`
	Cost     float64 `json:"cost" yaml:"cost"`
}

// CostEstimate is a monthly cost estimate in USD.
// Monthly is the rounded sum of the breakdown.
type CostEstimate struct {
	Monthly   int        `json:"monthly" yaml:"monthly"`
	Currency  string     `json:"currency" yaml:"currency"`
	Breakdown []CostLine `json:"breakdown" yaml:"breakdown"`
}

// CurrencyUSD is the only currency the cost model prices in
const CurrencyUSD = "USD"

// ZeroEstimate returns an empty USD estimate
func ZeroEstimate() CostEstimate {
	return CostEstimate{Currency: CurrencyUSD, Breakdown: []CostLine{}}
}

// Alternative is a cost-saving strategy with its tradeoffs
type Alternative struct {
	Description string   `json:"description" yaml:"description"`
	CostSaving  float64  `json:"costSaving" yaml:"costSaving"`
	Tradeoffs   []string `json:"tradeoffs" yaml:"tradeoffs"`
}

// Response is the compiled result for one command
type Response struct {
	Understood      bool          `json:"understood" yaml:"understood"`
	Intent          Intent        `json:"intent" yaml:"intent"`
	Entities        Entities      `json:"entities" yaml:"entities"`
	GeneratedCode   GeneratedCode `json:"generatedCode" yaml:"generatedCode"`
	EstimatedCost   CostEstimate  `json:"estimatedCost" yaml:"estimatedCost"`
	Recommendations []string      `json:"recommendations" yaml:"recommendations"`
	Alternatives    []Alternative `json:"alternatives" yaml:"alternatives"`
}
