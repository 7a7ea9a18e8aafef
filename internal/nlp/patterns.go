// Package nlp turns command text into intents, entities and a resolved context
// using a fixed table of compiled patterns. Nothing in this package is stateful;
// every table is built once at init and only read afterwards.
package nlp

import (
	"regexp"

	"github.com/infra-nli/internal/domain"
)

// IntentPriority is the order intent patterns are tried in. The first match wins,
// so a command that names both a database and a cluster compiles as a cluster.
var IntentPriority = []domain.Intent{
	domain.IntentCreateCluster,
	domain.IntentCreateDatabase,
	domain.IntentCreateWebApp,
	domain.IntentCreateLoadBalancer,
	domain.IntentCreateStorage,
	domain.IntentCreateNetwork,
}

// intentPatterns match the resource a command asks for. The leading verb and
// article are optional, so only the noun phrase is matched.
var intentPatterns = map[domain.Intent]*regexp.Regexp{
	domain.IntentCreateCluster: regexp.MustCompile(
		`(?i)\b(?:(?:kubernetes|k8s|eks|aks|gke)\s+)?clusters?\b|\b(?:eks|aks|gke)\b`),
	domain.IntentCreateDatabase: regexp.MustCompile(
		`(?i)\b(?:postgres(?:ql)?|mysql|mariadb|mongo(?:db)?|redis|dynamodb|cosmos(?:\s*db)?|rds|databases?|db)\b`),
	domain.IntentCreateWebApp: regexp.MustCompile(
		`(?i)\bweb[\s-]*app(?:lication)?s?\b|\bwebsites?\b|\bweb[\s-]*(?:server|service)s?\b|` +
			`^\s*(?:create|deploy|set\s*up|launch|provision)\s+(?:an?\s+|the\s+|my\s+)?applications?\b`),
	domain.IntentCreateLoadBalancer: regexp.MustCompile(
		`(?i)\bload[\s-]*balanc(?:er|ers|ing)\b|\b(?:alb|nlb|elb)s?\b`),
	domain.IntentCreateStorage: regexp.MustCompile(
		`(?i)\b(?:storage|buckets?|blobs?|s3|gcs)\b`),
	domain.IntentCreateNetwork: regexp.MustCompile(
		`(?i)\b(?:vpcs?|vnets?|networks?|subnets?)\b`),
}

// Modifier patterns
var (
	highAvailabilityPattern = regexp.MustCompile(
		`(?i)\bhigh(?:ly)?[\s-]*availab(?:le|ility)\b|\bha\b|\b99\.9+%|\bmulti[\s-]?az\b|\bredundant\b`)
	autoScalingPattern = regexp.MustCompile(
		`(?i)\bauto[\s-]?scal(?:e|es|ed|ing|able)\b|\bscales?\s+automatically\b`)
)

// tierPattern pairs an environment with the words that imply it
type tierPattern struct {
	env     domain.Environment
	pattern *regexp.Regexp
}

// environmentPatterns are tried in order, so "pre-prod" resolves to staging
// before the production pattern sees "prod".
var environmentPatterns = []tierPattern{
	{domain.Dev, regexp.MustCompile(`(?i)\b(?:development|dev|test(?:ing)?)\b`)},
	{domain.Staging, regexp.MustCompile(`(?i)\b(?:staging|stage|pre[\s-]?prod(?:uction)?)\b`)},
	{domain.Production, regexp.MustCompile(`(?i)\b(?:production|prod|live)\b`)},
}

// providerPattern pairs a cloud with the words that imply it
type providerPattern struct {
	provider domain.CloudProvider
	pattern  *regexp.Regexp
}

var providerPatterns = []providerPattern{
	{domain.AWS, regexp.MustCompile(`(?i)\b(?:aws|amazon|eks|rds)\b`)},
	{domain.Azure, regexp.MustCompile(`(?i)\b(?:azure|microsoft|aks)\b`)},
	{domain.GCP, regexp.MustCompile(`(?i)\b(?:gcp|google(?:\s*cloud)?|gke)\b`)},
}

// numericPattern extracts one integer entity from its first capture group.
// Matches whose full text satisfies skip are passed over.
type numericPattern struct {
	key     string
	pattern *regexp.Regexp
	skip    *regexp.Regexp
	assign  func(e *domain.Entities, v int)
}

var numericPatterns = []numericPattern{
	{"nodes", regexp.MustCompile(`(?i)(\d+)[\s-]*(?:worker[\s-]+)?nodes?\b`), nil,
		func(e *domain.Entities, v int) { e.Nodes = &v }},
	{"replicas", regexp.MustCompile(`(?i)(\d+)[\s-]*replicas?\b`), nil,
		func(e *domain.Entities, v int) { e.Replicas = &v }},
	// a size followed by memory/ram belongs to the memory entity
	{"storageSize", regexp.MustCompile(`(?i)(\d+)[\s-]*(?:gb|tb|gib|tib)\b(?:\s*(?:of\s+)?(?:memory|ram)\b)?`),
		regexp.MustCompile(`(?i)(?:memory|ram)$`),
		func(e *domain.Entities, v int) { e.StorageSize = &v }},
	{"memory", regexp.MustCompile(`(?i)(\d+)\s*(?:gb|gib)\s*(?:of\s+)?(?:memory|ram)\b`), nil,
		func(e *domain.Entities, v int) { e.Memory = &v }},
	{"cpu", regexp.MustCompile(`(?i)(\d+)[\s-]*(?:vcpus?|cpus?|cores?)\b`), nil,
		func(e *domain.Entities, v int) { e.CPU = &v }},
}

// EntityKeys lists the wire names of every entity the extractor can produce
func EntityKeys() []string {
	keys := []string{"highAvailability", "autoScaling"}
	for _, np := range numericPatterns {
		keys = append(keys, np.key)
	}
	return keys
}
