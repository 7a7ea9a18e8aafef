// Package pricing holds the static unit prices the synthesizers estimate with.
// All amounts are USD list prices for us-east-1; the tables are read-only.
package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// HoursPerMonth is the billing month used for hourly resources (24 * 30)
var HoursPerMonth = decimal.NewFromInt(24 * 30)

// InstanceRate describes an on-demand compute instance type
type InstanceRate struct {
	Type     string
	VCPU     int
	MemoryGB int
	Hourly   decimal.Decimal
}

// DatabaseRate describes a managed database instance class priced per month
type DatabaseRate struct {
	Class   string
	MultiAZ bool
	Monthly decimal.Decimal
}

var computeCatalog = map[string]InstanceRate{
	"t3.medium":  {Type: "t3.medium", VCPU: 2, MemoryGB: 4, Hourly: decimal.RequireFromString("0.0416")},
	"t3.large":   {Type: "t3.large", VCPU: 2, MemoryGB: 8, Hourly: decimal.RequireFromString("0.0832")},
	"m5.large":   {Type: "m5.large", VCPU: 2, MemoryGB: 8, Hourly: decimal.RequireFromString("0.096")},
	"m5.xlarge":  {Type: "m5.xlarge", VCPU: 4, MemoryGB: 16, Hourly: decimal.RequireFromString("0.192")},
	"m5.2xlarge": {Type: "m5.2xlarge", VCPU: 8, MemoryGB: 32, Hourly: decimal.RequireFromString("0.384")},
}

var databaseCatalog = map[string]DatabaseRate{
	"db.t3.small":  {Class: "db.t3.small", Monthly: decimal.NewFromInt(30)},
	"db.t3.medium": {Class: "db.t3.medium", Monthly: decimal.NewFromInt(60)},
	"db.m6g.large": {Class: "db.m6g.large", MultiAZ: true, Monthly: decimal.RequireFromString("182.5")},
}

// Flat and per-unit rates
var (
	EKSControlPlaneMonthly = decimal.NewFromInt(73)
	NATGatewayMonthly      = decimal.NewFromInt(32)
	EBSPerGBMonth          = decimal.RequireFromString("0.10")
	GP3PerGBMonth          = decimal.RequireFromString("0.115")
	BackupPerGBMonth       = decimal.RequireFromString("0.095")
	ContainerReplicaMonth  = decimal.NewFromInt(20)
	IngressBalancerMonthly = decimal.NewFromInt(10)
)

// NodeVolumeGB is the root volume attached to every cluster node
const NodeVolumeGB = 20

// LookupInstance returns the catalog entry for an instance type
func LookupInstance(instanceType string) (InstanceRate, bool) {
	r, ok := computeCatalog[instanceType]
	return r, ok
}

// LookupDatabase returns the catalog entry for a database instance class
func LookupDatabase(class string) (DatabaseRate, bool) {
	r, ok := databaseCatalog[class]
	return r, ok
}

// String describes the instance size, e.g. "m5.large (2 vCPU, 8 GB)"
func (r InstanceRate) String() string {
	return fmt.Sprintf("%s (%d vCPU, %d GB)", r.Type, r.VCPU, r.MemoryGB)
}

// InstanceTypes lists the priced compute types in name order
func InstanceTypes() []string {
	types := make([]string, 0, len(computeCatalog))
	for t := range computeCatalog {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Compute prices count instances of instanceType for a month.
// Types missing from the catalog price at zero.
func Compute(instanceType string, count int) decimal.Decimal {
	r, ok := computeCatalog[instanceType]
	if !ok {
		return decimal.Zero
	}
	return r.Hourly.Mul(HoursPerMonth).Mul(decimal.NewFromInt(int64(count)))
}

// Database prices one instance of class for a month
func Database(class string) decimal.Decimal {
	r, ok := databaseCatalog[class]
	if !ok {
		return decimal.Zero
	}
	return r.Monthly
}

// NATGateways prices count NAT gateways for a month
func NATGateways(count int) decimal.Decimal {
	return NATGatewayMonthly.Mul(decimal.NewFromInt(int64(count)))
}

// NodeVolumes prices the root EBS volumes of nodes cluster nodes
func NodeVolumes(nodes int) decimal.Decimal {
	return EBSPerGBMonth.Mul(decimal.NewFromInt(int64(nodes))).Mul(decimal.NewFromInt(NodeVolumeGB))
}

// PerGB multiplies a per-GB monthly rate by a size
func PerGB(rate decimal.Decimal, gb int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(gb)))
}

// Containers prices replicas container slots for a month
func Containers(replicas int) decimal.Decimal {
	return ContainerReplicaMonth.Mul(decimal.NewFromInt(int64(replicas)))
}

// Saving is fraction of total, rounded to whole dollars
func Saving(total decimal.Decimal, fraction string) float64 {
	return total.Mul(decimal.RequireFromString(fraction)).Round(0).InexactFloat64()
}
