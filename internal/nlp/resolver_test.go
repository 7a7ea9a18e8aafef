package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/infra-nli/internal/domain"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		explicit *domain.CommandContext
		text     string
		provider domain.CloudProvider
		env      domain.Environment
	}{
		{"defaults", nil, "Create a Kubernetes cluster with 3 nodes", domain.AWS, domain.Production},
		{"text provider and tier", nil, "an azure cluster for staging", domain.Azure, domain.Staging},
		{"aws checked before gcp", nil, "migrate from gcp to aws", domain.AWS, domain.Production},
		{"google cloud dev", nil, "google cloud bucket for dev", domain.GCP, domain.Dev},
		{"gke implies gcp", nil, "setup gke", domain.GCP, domain.Production},
		{"dev checked before production", nil, "test copy of the production db", domain.AWS, domain.Dev},
		{"pre-prod is staging", nil, "pre-prod database", domain.AWS, domain.Staging},
		{"live is production", nil, "live website", domain.AWS, domain.Production},
		{
			"explicit wins over text",
			&domain.CommandContext{Provider: "gcp", Environment: "dev"},
			"aws production cluster",
			domain.GCP, domain.Dev,
		},
		{
			"explicit kubernetes",
			&domain.CommandContext{Provider: "Kubernetes"},
			"web app",
			domain.Kubernetes, domain.Production,
		},
		{
			"invalid explicit values fall through to text",
			&domain.CommandContext{Provider: "oracle", Environment: "qa"},
			"azure testing cluster",
			domain.Azure, domain.Dev,
		},
		{
			"invalid explicit values fall through to defaults",
			&domain.CommandContext{Provider: "???", Environment: ""},
			"a cluster",
			domain.AWS, domain.Production,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rc := Resolve(tc.explicit, tc.text)
			assert.Equal(t, tc.provider, rc.Provider)
			assert.Equal(t, tc.env, rc.Environment)
		})
	}
}
