package domain

import "strings"

// CloudProvider represents a deployment target the compiler can resolve to
type CloudProvider string

const (
	AWS        CloudProvider = "aws"
	Azure      CloudProvider = "azure"
	GCP        CloudProvider = "gcp"
	Kubernetes CloudProvider = "kubernetes"
)

// DefaultProvider is used when neither the caller nor the command names a provider
const DefaultProvider = AWS

// ParseCloudProvider parses a string into a CloudProvider.
// The boolean is false when the string does not name a supported provider,
// in which case callers fall back to their own default chain.
func ParseCloudProvider(s string) (CloudProvider, bool) {
	p := CloudProvider(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", false
	}
	return p, true
}

// String returns the string representation of the cloud provider
func (c CloudProvider) String() string {
	return string(c)
}

// IsValid checks if the cloud provider is a known valid provider
func (c CloudProvider) IsValid() bool {
	switch c {
	case AWS, Azure, GCP, Kubernetes:
		return true
	default:
		return false
	}
}

// DefaultRegion returns the default region for the cloud provider
func (c CloudProvider) DefaultRegion() string {
	switch c {
	case Azure:
		return "eastus"
	case GCP:
		return "us-central1"
	default:
		return "us-east-1"
	}
}

// SupportedProviders lists every provider a command context may name
func SupportedProviders() []CloudProvider {
	return []CloudProvider{AWS, Azure, GCP, Kubernetes}
}

// Environment is the deployment tier a command targets
type Environment string

const (
	Dev        Environment = "dev"
	Staging    Environment = "staging"
	Production Environment = "production"
)

// DefaultEnvironment is the fail-safe tier for commands that name none
const DefaultEnvironment = Production

// ParseEnvironment parses a string into an Environment.
// Returns false for anything outside the closed set.
func ParseEnvironment(s string) (Environment, bool) {
	e := Environment(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case Dev, Staging, Production:
		return e, true
	default:
		return "", false
	}
}

// String returns the string representation of the environment
func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment is the production tier
func (e Environment) IsProduction() bool {
	return e == Production
}

// SupportedEnvironments lists every environment a command context may name
func SupportedEnvironments() []Environment {
	return []Environment{Dev, Staging, Production}
}
