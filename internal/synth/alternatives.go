package synth

import (
	"github.com/shopspring/decimal"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/pricing"
)

// Fractions of the monthly total an alternative is expected to save
const (
	spotSavingFraction         = "0.70"
	smallerNodesSavingFraction = "0.40"
)

// databaseDownsizeSaving is the monthly difference between db.t3.medium and db.t3.small
var databaseDownsizeSaving = pricing.Database(defaultDatabaseClass).Sub(pricing.Database("db.t3.small"))

// Alternatives suggests cheaper ways to run what was generated.
// Only clusters priced on AWS and databases define any; everything else
// gets an empty list.
func Alternatives(intent domain.Intent, rc domain.ResolvedContext, est domain.CostEstimate) []domain.Alternative {
	alts := []domain.Alternative{}

	switch intent {
	case domain.IntentCreateCluster:
		if rc.Provider != domain.AWS {
			return alts
		}
		total := breakdownTotal(est)
		alts = append(alts,
			domain.Alternative{
				Description: "Use Spot Instances for non-production workloads",
				CostSaving:  pricing.Saving(total, spotSavingFraction),
				Tradeoffs: []string{
					"Instances can be interrupted",
					"Not suitable for stateful workloads",
				},
			},
			domain.Alternative{
				Description: "Use smaller instance types (t3.medium)",
				CostSaving:  pricing.Saving(total, smallerNodesSavingFraction),
				Tradeoffs: []string{
					"Lower performance",
					"May need more nodes for same capacity",
				},
			},
		)

	case domain.IntentCreateDatabase:
		alts = append(alts,
			domain.Alternative{
				Description: "Use Aurora Serverless v2 for variable workloads",
				CostSaving:  0,
				Tradeoffs: []string{
					"Pay per ACU usage",
					"Better for spiky traffic",
					"Auto-scaling capacity",
				},
			},
			domain.Alternative{
				Description: "Use smaller instance (db.t3.small)",
				CostSaving:  databaseDownsizeSaving.InexactFloat64(),
				Tradeoffs: []string{
					"Lower performance",
					"Limited connections",
					"Not suitable for high traffic",
				},
			},
		)
	}

	return alts
}

func breakdownTotal(est domain.CostEstimate) decimal.Decimal {
	total := decimal.Zero
	for _, l := range est.Breakdown {
		total = total.Add(decimal.NewFromFloat(l.Cost))
	}
	return total
}
