package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infra-nli/internal/domain"
)

func TestWebAppAutoscalerUsesDerivedReplicas(t *testing.T) {
	e := domain.Entities{AutoScaling: boolPtr(true), Replicas: intPtr(5)}
	out := WebApp(e, awsProd(), DefaultOptions())

	assert.NotContains(t, out.Code, domain.FormatTerraform)
	docs := decodeDocs(t, out.Code[domain.FormatKubernetes])
	assert.Equal(t, []string{"Namespace", "Deployment", "HorizontalPodAutoscaler", "Service", "Ingress"}, kinds(docs))

	hpa := findKind(t, docs, "HorizontalPodAutoscaler")
	assert.Equal(t, "autoscaling/v2", hpa["apiVersion"])
	assert.Equal(t, 2, dig(t, hpa, "spec", "minReplicas"))
	assert.Equal(t, 10, dig(t, hpa, "spec", "maxReplicas"))

	metrics := dig(t, hpa, "spec", "metrics").([]interface{})
	require.Len(t, metrics, 2)
	assert.Equal(t, "cpu", dig(t, metrics[0], "resource", "name"))
	assert.Equal(t, 70, dig(t, metrics[0], "resource", "target", "averageUtilization"))
	assert.Equal(t, "memory", dig(t, metrics[1], "resource", "name"))
	assert.Equal(t, 80, dig(t, metrics[1], "resource", "target", "averageUtilization"))

	deploy := findKind(t, docs, "Deployment")
	assert.Equal(t, 2, dig(t, deploy, "spec", "replicas"))

	assert.Contains(t, out.Recommendations, "Auto-scaling configured based on CPU/memory")
	assert.Contains(t, out.Recommendations,
		"Requested 5 replicas; the deployment runs 2 for its availability tier, edit spec.replicas to override")
}

func TestWebAppWithoutAutoscaling(t *testing.T) {
	e := domain.Entities{HighAvailability: boolPtr(true)}
	out := WebApp(e, domain.ResolvedContext{Provider: domain.Kubernetes, Environment: domain.Staging}, DefaultOptions())

	docs := decodeDocs(t, out.Code[domain.FormatKubernetes])
	assert.Equal(t, []string{"Namespace", "Deployment", "Service", "Ingress"}, kinds(docs))
	assert.Equal(t, 3, dig(t, findKind(t, docs, "Deployment"), "spec", "replicas"))

	assert.Equal(t, []string{
		"Consider enabling auto-scaling",
		"High availability with 3 replicas",
		"HTTPS configured with cert-manager",
		"Health checks configured",
		"Ready for Prometheus monitoring",
	}, out.Recommendations)
}

func TestWebAppAlwaysShipsProbesServiceAndTLS(t *testing.T) {
	docs := decodeDocs(t, WebApp(domain.Entities{}, awsProd(), DefaultOptions()).Code[domain.FormatKubernetes])

	containers := dig(t, findKind(t, docs, "Deployment"), "spec", "template", "spec", "containers").([]interface{})
	require.Len(t, containers, 1)
	assert.Equal(t, "/health", dig(t, containers[0], "livenessProbe", "httpGet", "path"))
	assert.Equal(t, "/ready", dig(t, containers[0], "readinessProbe", "httpGet", "path"))
	assert.Equal(t, "1Gi", dig(t, containers[0], "resources", "limits", "memory"))

	svc := findKind(t, docs, "Service")
	assert.Equal(t, "ClusterIP", dig(t, svc, "spec", "type"))

	ing := findKind(t, docs, "Ingress")
	assert.Equal(t, "letsencrypt-prod", dig(t, ing, "metadata", "annotations", "cert-manager.io/cluster-issuer"))
	tls := dig(t, ing, "spec", "tls").([]interface{})
	require.Len(t, tls, 1)
	assert.Equal(t, "webapp-tls", dig(t, tls[0], "secretName"))
	assert.Equal(t, []interface{}{"production.yourdomain.com"}, dig(t, tls[0], "hosts"))
}

func TestWebAppCost(t *testing.T) {
	plain := WebApp(domain.Entities{}, awsProd(), DefaultOptions()).Estimate
	assert.Equal(t, []domain.CostLine{
		{Resource: "Container resources", Cost: 40},
		{Resource: "Load balancer", Cost: 10},
	}, plain.Breakdown)
	assert.Equal(t, 50, plain.Monthly)

	ha := WebApp(domain.Entities{HighAvailability: boolPtr(true)}, awsProd(), DefaultOptions()).Estimate
	assert.Equal(t, 70, ha.Monthly)
	assertBreakdownSums(t, ha)
}

func TestWebAppCustomDomain(t *testing.T) {
	opts := Options{Domain: "example.org"}
	rc := domain.ResolvedContext{Provider: domain.AWS, Environment: domain.Dev}
	docs := decodeDocs(t, WebApp(domain.Entities{}, rc, opts).Code[domain.FormatKubernetes])

	rules := dig(t, findKind(t, docs, "Ingress"), "spec", "rules").([]interface{})
	require.Len(t, rules, 1)
	assert.Equal(t, "dev.example.org", dig(t, rules[0], "host"))
}
