package engine

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/nlp"
	"github.com/infra-nli/internal/synth"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine() *Engine {
	return New(synth.DefaultOptions())
}

func TestScenarioCluster(t *testing.T) {
	resp := newEngine().Handle(domain.Command{Text: "Create a Kubernetes cluster with 3 nodes"})

	assert.True(t, resp.Understood)
	assert.Equal(t, domain.IntentCreateCluster, resp.Intent)
	require.NotNil(t, resp.Entities.Nodes)
	assert.Equal(t, 3, *resp.Entities.Nodes)
	assert.Nil(t, resp.Entities.HighAvailability)

	tf := resp.GeneratedCode[domain.FormatTerraform]
	assert.Regexp(t, `(?m)^\s*desired_size\s*=\s*3$`, tf)
	// aws and production defaults
	assert.Contains(t, tf, `source  = "hashicorp/aws"`)
	assert.Contains(t, tf, `"iac-production-cluster"`)
	assert.Len(t, resp.Alternatives, 2)
}

func TestScenarioDatabase(t *testing.T) {
	resp := newEngine().Handle(domain.Command{Text: "Deploy a highly available PostgreSQL database with 200GB storage"})

	assert.Equal(t, domain.IntentCreateDatabase, resp.Intent)
	require.NotNil(t, resp.Entities.HighAvailability)
	assert.True(t, *resp.Entities.HighAvailability)
	require.NotNil(t, resp.Entities.StorageSize)
	assert.Equal(t, 200, *resp.Entities.StorageSize)

	var labels []string
	for _, l := range resp.EstimatedCost.Breakdown {
		labels = append(labels, l.Resource)
	}
	assert.Contains(t, labels, "RDS Instance (Multi-AZ)")
	assert.Regexp(t, `(?m)^\s*deletion_protection\s*=\s*true$`, resp.GeneratedCode[domain.FormatTerraform])
	assert.Contains(t, resp.Recommendations, "Deletion protection enabled")
}

func TestScenarioWebApp(t *testing.T) {
	resp := newEngine().Handle(domain.Command{Text: "Setup a production web application with auto-scaling and 5 replicas"})

	assert.Equal(t, domain.IntentCreateWebApp, resp.Intent)
	require.NotNil(t, resp.Entities.AutoScaling)
	assert.True(t, *resp.Entities.AutoScaling)

	var minReplicas interface{}
	dec := yaml.NewDecoder(strings.NewReader(resp.GeneratedCode[domain.FormatKubernetes]))
	for {
		var doc map[string]interface{}
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if doc["kind"] == "HorizontalPodAutoscaler" {
			minReplicas = doc["spec"].(map[string]interface{})["minReplicas"]
		}
	}
	assert.Equal(t, 2, minReplicas)
}

func TestScenarioUnknown(t *testing.T) {
	for _, text := range []string{"Please help me", "turn on the lights", ""} {
		t.Run(text, func(t *testing.T) {
			resp := newEngine().Handle(domain.Command{Text: text})

			assert.False(t, resp.Understood)
			assert.Equal(t, domain.IntentUnknown, resp.Intent)
			assert.NotNil(t, resp.GeneratedCode)
			assert.Empty(t, resp.GeneratedCode)
			assert.Equal(t, 0, resp.EstimatedCost.Monthly)
			assert.NotEmpty(t, resp.Recommendations)
			assert.Contains(t, resp.Recommendations[1], "Create a Kubernetes cluster with 3 nodes")
			assert.NotNil(t, resp.Alternatives)
			assert.Empty(t, resp.Alternatives)
		})
	}
}

func TestScenarioLoadBalancer(t *testing.T) {
	resp := newEngine().Handle(domain.Command{Text: "Create a load balancer"})

	assert.True(t, resp.Understood)
	assert.Equal(t, domain.IntentCreateLoadBalancer, resp.Intent)
	assert.Empty(t, resp.GeneratedCode)
	assert.Equal(t, 0, resp.EstimatedCost.Monthly)
	require.Len(t, resp.Recommendations, 1)
	assert.True(t, strings.HasSuffix(resp.Recommendations[0], "coming soon"))
}

func TestStubIntentsHaveExactlyOneRecommendation(t *testing.T) {
	budget := 1.0
	for _, text := range []string{"Create a load balancer", "Create an S3 bucket", "create a vpc"} {
		t.Run(text, func(t *testing.T) {
			resp := newEngine().Handle(domain.Command{
				Text:    text,
				Context: &domain.CommandContext{Budget: &budget},
			})
			assert.Empty(t, resp.GeneratedCode)
			assert.Equal(t, 0, resp.EstimatedCost.Monthly)
			assert.Len(t, resp.Recommendations, 1)
		})
	}
}

func TestExplicitContext(t *testing.T) {
	resp := newEngine().Handle(domain.Command{
		Text:    "Create an aws kubernetes cluster",
		Context: &domain.CommandContext{Provider: "gcp", Environment: "dev"},
	})

	assert.NotContains(t, resp.GeneratedCode, domain.FormatTerraform)
	assert.Contains(t, resp.GeneratedCode, domain.FormatKubernetes)
	assert.Contains(t, resp.GeneratedCode[domain.FormatKubernetes], "namespace: dev")
	assert.Empty(t, resp.Alternatives)
}

func TestBudgetNote(t *testing.T) {
	tests := []struct {
		name     string
		budget   *float64
		expected string
	}{
		{"over budget", floatPtr(200), "Estimated monthly cost $318 exceeds budget $200.00"},
		{"within budget", floatPtr(500), ""},
		{"exact budget", floatPtr(318), ""},
		{"zero budget ignored", floatPtr(0), ""},
		{"NaN budget ignored", floatPtr(math.NaN()), ""},
		{"infinite budget ignored", floatPtr(math.Inf(1)), ""},
		{"negative infinite budget ignored", floatPtr(math.Inf(-1)), ""},
		{"no budget", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *domain.Response
			require.NotPanics(t, func() {
				resp = newEngine().Handle(domain.Command{
					Text:    "Create a Kubernetes cluster with 3 nodes",
					Context: &domain.CommandContext{Budget: tt.budget},
				})
			})
			assert.True(t, resp.Understood)
			last := resp.Recommendations[len(resp.Recommendations)-1]
			if tt.expected == "" {
				assert.NotContains(t, last, "exceeds budget")
				return
			}
			assert.Equal(t, tt.expected, last)
		})
	}
}

func TestHandleOversizedNodeCount(t *testing.T) {
	for _, text := range []string{
		"Create a kubernetes cluster with 9223372036854775807 nodes",
		"Create an auto-scaling kubernetes cluster with 5000000000000000000 nodes",
	} {
		t.Run(text, func(t *testing.T) {
			resp := newEngine().Handle(domain.Command{Text: text})

			require.True(t, resp.Understood)
			assert.Nil(t, resp.Entities.Nodes)
			assert.Positive(t, resp.EstimatedCost.Monthly)

			var sum float64
			for _, item := range resp.EstimatedCost.Breakdown {
				assert.GreaterOrEqual(t, item.Cost, float64(0), item.Resource)
				sum += item.Cost
			}
			assert.Equal(t, resp.EstimatedCost.Monthly, int(math.Round(sum)))
		})
	}
}

func TestSynthesizeRejectsUnknownIntents(t *testing.T) {
	e := newEngine()
	rc := domain.ResolvedContext{Provider: domain.AWS, Environment: domain.Dev}

	for _, intent := range []domain.Intent{domain.IntentUnknown, "create_queue", ""} {
		var ok bool
		require.NotPanics(t, func() {
			_, ok = e.synthesize(intent, domain.Entities{}, rc)
		}, string(intent))
		assert.False(t, ok, string(intent))
	}

	_, ok := e.synthesize(domain.IntentCreateNetwork, domain.Entities{}, rc)
	assert.True(t, ok)
}

func TestHandleIsDeterministic(t *testing.T) {
	e := newEngine()
	cmd := domain.Command{Text: "Deploy a highly available, auto-scaling web app with 4 replicas in staging"}

	first, err := json.Marshal(e.Handle(cmd))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(e.Handle(cmd))
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}

func TestHandleConcurrent(t *testing.T) {
	e := newEngine()
	commands := []string{
		"Create a Kubernetes cluster with 3 nodes",
		"Deploy a highly available PostgreSQL database with 200GB storage",
		"Setup a production web application with auto-scaling and 5 replicas",
		"Create a load balancer",
		"Please help me",
	}

	want := make([]string, len(commands))
	for i, c := range commands {
		b, err := json.Marshal(e.Handle(domain.Command{Text: c}))
		require.NoError(t, err)
		want[i] = string(b)
	}

	var wg sync.WaitGroup
	got := make([][]string, 16)
	for w := range got {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, c := range commands {
				b, _ := json.Marshal(e.Handle(domain.Command{Text: c}))
				got[w] = append(got[w], string(b))
			}
		}(w)
	}
	wg.Wait()

	for _, g := range got {
		assert.Equal(t, want, g)
	}
}

func TestEveryKnownIntentIsDispatched(t *testing.T) {
	e := newEngine()
	for _, intent := range nlp.IntentPriority {
		assert.NotPanics(t, func() {
			e.synthesize(intent, domain.Entities{}, domain.ResolvedContext{Provider: domain.AWS, Environment: domain.Production})
		}, "intent %s", intent)
	}
}

func floatPtr(v float64) *float64 { return &v }
