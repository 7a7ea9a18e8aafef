package synth

import (
	"fmt"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/pricing"
)

const (
	defaultClusterNodes     = 3
	defaultSampleReplicas   = 3
	haClusterMinNodes       = 2
	natGatewaysPerHACluster = 3
)

// clusterAdvisories are appended to every cluster recommendation list
var clusterAdvisories = []string{
	"Enable Pod Security Standards (PSS) for security",
	"Install metrics-server for resource monitoring",
	"Configure cluster autoscaler for node scaling",
}

// Cluster renders a managed Kubernetes cluster. Only AWS (EKS) produces
// Terraform and a cost estimate; every provider gets the sample workload.
func Cluster(e domain.Entities, rc domain.ResolvedContext, opts Options) Output {
	opts = opts.withDefaults()
	env := rc.Environment.String()
	ha, autoScale := e.HA(), e.AutoScale()

	out := Output{
		Code:     domain.GeneratedCode{},
		Estimate: domain.ZeroEstimate(),
	}
	out.Code[domain.FormatKubernetes] = must(sampleWorkload(env, domain.IntOr(e.Replicas, defaultSampleReplicas)))

	if rc.Provider != domain.AWS {
		out.Recommendations = append([]string{
			fmt.Sprintf("Managed cluster provisioning is not supported for %s yet; only the workload manifest was generated", rc.Provider),
		}, clusterAdvisories...)
		return out
	}

	nodes := domain.IntOr(e.Nodes, defaultClusterNodes)
	p := eksParams{
		Environment:       env,
		Region:            opts.Region,
		AZs:               opts.availabilityZones(),
		HA:                ha,
		AutoScaling:       autoScale,
		KubernetesVersion: opts.KubernetesVersion,
		InstanceType:      opts.NodeInstanceType,
		MinSize:           1,
		MaxSize:           nodes,
		DesiredSize:       nodes,
	}
	if ha {
		p.MinSize = haClusterMinNodes
	}
	if autoScale {
		p.MaxSize = nodes * 2
	}
	out.Code[domain.FormatTerraform] = must(renderTerraform(eksTmpl, p))

	est := pricing.NewEstimate().
		Add("EKS Control Plane", pricing.EKSControlPlaneMonthly).
		Add(fmt.Sprintf("EC2 Instances (%dx %s)", nodes, opts.NodeInstanceType), pricing.Compute(opts.NodeInstanceType, nodes))
	if ha {
		est.Add("NAT Gateways (HA)", pricing.NATGateways(natGatewaysPerHACluster))
	} else {
		est.Add("NAT Gateway", pricing.NATGateways(1))
	}
	est.Add("EBS Volumes", pricing.NodeVolumes(nodes))
	out.Estimate = est.Build()

	if ha {
		out.Recommendations = append(out.Recommendations, "High availability enabled with multi-AZ deployment")
	} else {
		out.Recommendations = append(out.Recommendations, "Consider enabling high availability for production workloads")
	}
	if autoScale {
		out.Recommendations = append(out.Recommendations, "Auto-scaling configured for dynamic workload handling")
	} else {
		out.Recommendations = append(out.Recommendations, "Add auto-scaling for cost optimization during low traffic")
	}
	out.Recommendations = append(out.Recommendations, clusterAdvisories...)

	return out
}

// sampleWorkload is the starter deployment shipped with every cluster
func sampleWorkload(env string, replicas int) (string, error) {
	labels := map[string]string{"app": "sample-app"}

	return renderManifests("Sample workload for the "+env+" cluster",
		namespace(env),
		manifest{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
			Metadata:   objectMeta{Name: "sample-app", Namespace: env, Labels: labels},
			Spec: deploymentSpec{
				Replicas: replicas,
				Selector: labelSelector{MatchLabels: labels},
				Template: podTemplate{
					Metadata: objectMeta{Name: "sample-app", Labels: labels},
					Spec: podSpec{Containers: []container{{
						Name:  "app",
						Image: "nginx:1.25",
						Ports: []containerPort{{ContainerPort: 80}},
						Resources: resources{
							Requests: map[string]string{"memory": "256Mi", "cpu": "250m"},
							Limits:   map[string]string{"memory": "512Mi", "cpu": "500m"},
						},
						LivenessProbe:  httpProbe("/", 80, 30, 10),
						ReadinessProbe: httpProbe("/", 80, 5, 5),
					}}},
				},
			},
		},
		manifest{
			APIVersion: "v1",
			Kind:       "Service",
			Metadata:   objectMeta{Name: "sample-app", Namespace: env},
			Spec: serviceSpec{
				Type:     "LoadBalancer",
				Selector: labels,
				Ports:    []servicePort{{Port: 80, TargetPort: 80, Protocol: "TCP"}},
			},
		},
	)
}
