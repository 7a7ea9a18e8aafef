package synth

import "github.com/infra-nli/internal/domain"

// Stub answers for resource families that have no generator yet. The result
// is a normal response: no code, no cost and a single note.
func Stub(capability string) Output {
	return Output{
		Code:            domain.GeneratedCode{},
		Estimate:        domain.ZeroEstimate(),
		Recommendations: []string{capability + " generation coming soon"},
	}
}

// LoadBalancer is not generated yet
func LoadBalancer() Output { return Stub("Load balancer") }

// Storage is not generated yet
func Storage() Output { return Stub("Storage") }

// Network is not generated yet
func Network() Output { return Stub("Network") }
