package synth

import (
	"fmt"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/pricing"
)

const (
	haWebReplicas      = 3
	defaultWebReplicas = 2
	webMaxReplicas     = 10
	webCPUTarget       = 70
	webMemoryTarget    = 80
	webContainerPort   = 8080
)

// WebAppReplicas is the replica count a web app deploys with.
// It follows the availability tier; an explicit replica count is advisory.
func WebAppReplicas(e domain.Entities) int {
	if e.HA() {
		return haWebReplicas
	}
	return defaultWebReplicas
}

// WebApp renders a containerised web application as Kubernetes manifests
func WebApp(e domain.Entities, rc domain.ResolvedContext, opts Options) Output {
	opts = opts.withDefaults()
	env := rc.Environment.String()
	replicas := WebAppReplicas(e)
	autoScale := e.AutoScale()

	out := Output{
		Code: domain.GeneratedCode{
			domain.FormatKubernetes: must(webAppManifests(env, opts.Domain, replicas, autoScale)),
		},
		Estimate: pricing.NewEstimate().
			Add("Container resources", pricing.Containers(replicas)).
			Add("Load balancer", pricing.IngressBalancerMonthly).
			Build(),
	}

	if autoScale {
		out.Recommendations = append(out.Recommendations, "Auto-scaling configured based on CPU/memory")
	} else {
		out.Recommendations = append(out.Recommendations, "Consider enabling auto-scaling")
	}
	if e.HA() {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf("High availability with %d replicas", replicas))
	} else {
		out.Recommendations = append(out.Recommendations, "Add more replicas for production")
	}
	if e.Replicas != nil && *e.Replicas != replicas {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Requested %d replicas; the deployment runs %d for its availability tier, edit spec.replicas to override",
			*e.Replicas, replicas))
	}
	out.Recommendations = append(out.Recommendations,
		"HTTPS configured with cert-manager",
		"Health checks configured",
		"Ready for Prometheus monitoring",
	)

	return out
}

func webAppManifests(env, baseDomain string, replicas int, autoScale bool) (string, error) {
	labels := map[string]string{"app": "webapp", "environment": env}
	selector := map[string]string{"app": "webapp"}
	host := env + "." + baseDomain

	docs := []manifest{
		namespace(env),
		{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
			Metadata:   objectMeta{Name: "webapp", Namespace: env, Labels: labels},
			Spec: deploymentSpec{
				Replicas: replicas,
				Selector: labelSelector{MatchLabels: selector},
				Template: podTemplate{
					Metadata: objectMeta{Name: "webapp", Labels: labels},
					Spec: podSpec{Containers: []container{{
						Name:  "webapp",
						Image: "your-webapp-image:latest",
						Ports: []containerPort{{ContainerPort: webContainerPort}},
						Env:   []envVar{{Name: "ENVIRONMENT", Value: env}},
						Resources: resources{
							Requests: map[string]string{"memory": "512Mi", "cpu": "500m"},
							Limits:   map[string]string{"memory": "1Gi", "cpu": "1000m"},
						},
						LivenessProbe:  httpProbe("/health", webContainerPort, 30, 10),
						ReadinessProbe: httpProbe("/ready", webContainerPort, 5, 5),
					}}},
				},
			},
		},
	}

	if autoScale {
		docs = append(docs, manifest{
			APIVersion: "autoscaling/v2",
			Kind:       "HorizontalPodAutoscaler",
			Metadata:   objectMeta{Name: "webapp-hpa", Namespace: env},
			Spec: hpaSpec{
				ScaleTargetRef: crossVersionRef{APIVersion: "apps/v1", Kind: "Deployment", Name: "webapp"},
				MinReplicas:    replicas,
				MaxReplicas:    webMaxReplicas,
				Metrics: []metricSpec{
					utilizationMetric("cpu", webCPUTarget),
					utilizationMetric("memory", webMemoryTarget),
				},
			},
		})
	}

	docs = append(docs,
		manifest{
			APIVersion: "v1",
			Kind:       "Service",
			Metadata:   objectMeta{Name: "webapp", Namespace: env},
			Spec: serviceSpec{
				Type:     "ClusterIP",
				Selector: selector,
				Ports:    []servicePort{{Port: 80, TargetPort: webContainerPort, Protocol: "TCP"}},
			},
		},
		manifest{
			APIVersion: "networking.k8s.io/v1",
			Kind:       "Ingress",
			Metadata: objectMeta{
				Name:      "webapp",
				Namespace: env,
				Annotations: map[string]string{
					"cert-manager.io/cluster-issuer":           "letsencrypt-prod",
					"nginx.ingress.kubernetes.io/ssl-redirect": "true",
				},
			},
			Spec: ingressSpec{
				IngressClassName: "nginx",
				TLS:              []ingressTLS{{Hosts: []string{host}, SecretName: "webapp-tls"}},
				Rules: []ingressRule{{
					Host: host,
					HTTP: ruleHTTP{Paths: []ingressPath{{
						Path:     "/",
						PathType: "Prefix",
						Backend: ingressBackend{Service: backendService{
							Name: "webapp",
							Port: backendPort{Number: 80},
						}},
					}}},
				}},
			},
		},
	)

	return renderManifests("Web application for the "+env+" environment", docs...)
}

func utilizationMetric(name string, target int) metricSpec {
	return metricSpec{
		Type: "Resource",
		Resource: resourceMetric{
			Name:   name,
			Target: metricTarget{Type: "Utilization", AverageUtilization: target},
		},
	}
}
