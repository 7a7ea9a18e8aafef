// Package synth renders infrastructure code, cost estimates and advice for
// each resource family the classifier recognises.
//
// Every synthesizer is a pure function of the extracted entities, the
// resolved context and the engine options. Pricing lives in the pricing
// package; text layout lives in the templates and manifest types here.
package synth

import (
	"fmt"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/pricing"
)

// Options are engine-wide rendering settings
type Options struct {
	Region            string `yaml:"region" json:"region"`
	KubernetesVersion string `yaml:"kubernetes_version" json:"kubernetesVersion"`
	NodeInstanceType  string `yaml:"node_instance_type" json:"nodeInstanceType"`
	Domain            string `yaml:"domain" json:"domain"`
}

// DefaultOptions returns the settings used when none are configured
func DefaultOptions() Options {
	return Options{
		Region:            domain.AWS.DefaultRegion(),
		KubernetesVersion: "1.28",
		NodeInstanceType:  "m5.large",
		Domain:            "yourdomain.com",
	}
}

// withDefaults fills zero fields from DefaultOptions. Node types missing
// from the price catalog fall back to the default type.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Region == "" {
		o.Region = def.Region
	}
	if o.KubernetesVersion == "" {
		o.KubernetesVersion = def.KubernetesVersion
	}
	if _, ok := pricing.LookupInstance(o.NodeInstanceType); !ok {
		o.NodeInstanceType = def.NodeInstanceType
	}
	if o.Domain == "" {
		o.Domain = def.Domain
	}
	return o
}

// availabilityZones returns the three zones resources are spread over
func (o Options) availabilityZones() []string {
	return []string{o.Region + "a", o.Region + "b", o.Region + "c"}
}

// Output is what a synthesizer produces for one command
type Output struct {
	Code            domain.GeneratedCode
	Estimate        domain.CostEstimate
	Recommendations []string
}

// must unwraps a render result. Templates and manifest types are fixed at
// compile time, so a failure here is a programming error caught by tests.
func must(s string, err error) string {
	if err != nil {
		panic(fmt.Sprintf("synth: %v", err))
	}
	return s
}
