package synth

import (
	"fmt"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/pricing"
)

const (
	defaultStorageGB        = 100
	haDatabaseClass         = "db.m6g.large"
	defaultDatabaseClass    = "db.t3.medium"
	postgresVersion         = "15.4"
	productionBackupDays    = 30
	nonProductionBackupDays = 7
)

// Database renders a PostgreSQL instance on Amazon RDS.
// Deletion protection and final snapshots follow the environment: production
// keeps both, other tiers drop them.
func Database(e domain.Entities, rc domain.ResolvedContext, opts Options) Output {
	opts = opts.withDefaults()
	ha := e.HA()
	prod := rc.Environment.IsProduction()
	storage := domain.IntOr(e.StorageSize, defaultStorageGB)

	p := rdsParams{
		Environment:         rc.Environment.String(),
		Region:              opts.Region,
		Identifier:          fmt.Sprintf("iac-%s-postgres", rc.Environment),
		InstanceClass:       defaultDatabaseClass,
		EngineVersion:       postgresVersion,
		StorageGB:           storage,
		MaxStorageGB:        storage * 2,
		MultiAZ:             ha,
		BackupRetentionDays: nonProductionBackupDays,
		DeletionProtection:  prod,
		SkipFinalSnapshot:   !prod,
	}
	if ha {
		p.InstanceClass = haDatabaseClass
	}
	if prod {
		p.BackupRetentionDays = productionBackupDays
	}

	out := Output{
		Code: domain.GeneratedCode{
			domain.FormatTerraform:      must(renderTerraform(rdsTmpl, p)),
			domain.FormatCloudFormation: must(renderCloudFormation(rdsStack(p))),
		},
	}

	instanceLabel := "RDS Instance"
	if rate, ok := pricing.LookupDatabase(p.InstanceClass); ok && rate.MultiAZ {
		instanceLabel = "RDS Instance (Multi-AZ)"
	}
	out.Estimate = pricing.NewEstimate().
		Add(instanceLabel, pricing.Database(p.InstanceClass)).
		Add(fmt.Sprintf("Storage (%dGB gp3)", storage), pricing.PerGB(pricing.GP3PerGBMonth, storage)).
		Add("Automated Backups", pricing.PerGB(pricing.BackupPerGBMonth, storage)).
		Build()

	if ha {
		out.Recommendations = append(out.Recommendations, "Multi-AZ deployment provides a 99.95% availability SLA")
	} else {
		out.Recommendations = append(out.Recommendations, "Enable Multi-AZ for production databases")
	}
	out.Recommendations = append(out.Recommendations,
		"Master password generated and stored in AWS Secrets Manager",
		"CloudWatch logs enabled for monitoring",
		fmt.Sprintf("Automated backups retained for %d days", p.BackupRetentionDays),
	)
	if prod {
		out.Recommendations = append(out.Recommendations, "Deletion protection enabled")
	} else {
		out.Recommendations = append(out.Recommendations, "Consider enabling deletion protection")
	}
	if rc.Provider != domain.AWS {
		out.Recommendations = append(out.Recommendations,
			fmt.Sprintf("Templates target Amazon RDS; %s database templates are not supported yet", rc.Provider))
	}

	return out
}
