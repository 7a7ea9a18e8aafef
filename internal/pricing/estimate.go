package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/infra-nli/internal/domain"
)

type line struct {
	resource string
	cost     decimal.Decimal
}

// Estimate accumulates itemized monthly costs.
// Lines are rounded to cents as they are added so that the breakdown a
// caller sees sums exactly to Total.
type Estimate struct {
	lines []line
}

// NewEstimate creates an empty estimate
func NewEstimate() *Estimate {
	return &Estimate{}
}

// Add appends a line item
func (e *Estimate) Add(resource string, cost decimal.Decimal) *Estimate {
	e.lines = append(e.lines, line{resource: resource, cost: cost.Round(2)})
	return e
}

// Total is the exact sum of all lines
func (e *Estimate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.lines {
		total = total.Add(l.cost)
	}
	return total
}

// Build converts the estimate to its wire form
func (e *Estimate) Build() domain.CostEstimate {
	est := domain.ZeroEstimate()
	for _, l := range e.lines {
		est.Breakdown = append(est.Breakdown, domain.CostLine{
			Resource: l.resource,
			Cost:     l.cost.InexactFloat64(),
		})
	}
	est.Monthly = int(e.Total().Round(0).IntPart())
	return est
}
