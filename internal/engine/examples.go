package engine

import (
	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/nlp"
)

// ExampleGroup is a category of sample commands
type ExampleGroup struct {
	Category string   `json:"category" yaml:"category"`
	Commands []string `json:"commands" yaml:"commands"`
}

// Catalog lists sample commands, the providers and environments a
// command context may name, and the entities extraction recognises.
type Catalog struct {
	Examples     []ExampleGroup         `json:"examples" yaml:"examples"`
	Providers    []domain.CloudProvider `json:"providers" yaml:"providers"`
	Environments []domain.Environment   `json:"environments" yaml:"environments"`
	Entities     []string               `json:"entities" yaml:"entities"`
}

// Examples returns a fresh copy of the catalog
func (e *Engine) Examples() Catalog {
	return Catalog{
		Examples: []ExampleGroup{
			{
				Category: "Kubernetes",
				Commands: []string{
					"Create a Kubernetes cluster with 3 nodes",
					"Deploy a highly available EKS cluster with 5 nodes and auto-scaling",
					"Setup a dev k8s cluster on azure",
				},
			},
			{
				Category: "Databases",
				Commands: []string{
					"Deploy a PostgreSQL database with high availability",
					"Create a staging postgres database with 50GB storage",
					"Deploy a highly available PostgreSQL database with 200GB storage",
				},
			},
			{
				Category: "Applications",
				Commands: []string{
					"Setup a web application with auto-scaling",
					"Setup a production web application with auto-scaling and 5 replicas",
					"Launch a highly available website",
				},
			},
			{
				Category: "Networking & Storage",
				Commands: []string{
					"Create a load balancer",
					"Create an S3 bucket for backups",
					"Create a VPC with private subnets",
				},
			},
		},
		Providers:    domain.SupportedProviders(),
		Environments: domain.SupportedEnvironments(),
		Entities:     nlp.EntityKeys(),
	}
}
