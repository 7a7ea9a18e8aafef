package synth

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// The types below cover the subset of the Kubernetes API the generated
// workloads use. Field order follows kubectl's own output.

type objectMeta struct {
	Name        string            `yaml:"name"`
	Namespace   string            `yaml:"namespace,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

type manifest struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   objectMeta  `yaml:"metadata"`
	Spec       interface{} `yaml:"spec,omitempty"`
}

type labelSelector struct {
	MatchLabels map[string]string `yaml:"matchLabels"`
}

type deploymentSpec struct {
	Replicas int           `yaml:"replicas"`
	Selector labelSelector `yaml:"selector"`
	Template podTemplate   `yaml:"template"`
}

type podTemplate struct {
	Metadata objectMeta `yaml:"metadata"`
	Spec     podSpec    `yaml:"spec"`
}

type podSpec struct {
	Containers []container `yaml:"containers"`
}

type container struct {
	Name           string          `yaml:"name"`
	Image          string          `yaml:"image"`
	Ports          []containerPort `yaml:"ports,omitempty"`
	Env            []envVar        `yaml:"env,omitempty"`
	Resources      resources       `yaml:"resources"`
	LivenessProbe  *probe          `yaml:"livenessProbe,omitempty"`
	ReadinessProbe *probe          `yaml:"readinessProbe,omitempty"`
}

type containerPort struct {
	ContainerPort int `yaml:"containerPort"`
}

type envVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type resources struct {
	Requests map[string]string `yaml:"requests"`
	Limits   map[string]string `yaml:"limits"`
}

type probe struct {
	HTTPGet             httpGet `yaml:"httpGet"`
	InitialDelaySeconds int     `yaml:"initialDelaySeconds"`
	PeriodSeconds       int     `yaml:"periodSeconds"`
}

type httpGet struct {
	Path string `yaml:"path"`
	Port int    `yaml:"port"`
}

type serviceSpec struct {
	Type     string            `yaml:"type"`
	Selector map[string]string `yaml:"selector"`
	Ports    []servicePort     `yaml:"ports"`
}

type servicePort struct {
	Port       int    `yaml:"port"`
	TargetPort int    `yaml:"targetPort"`
	Protocol   string `yaml:"protocol,omitempty"`
}

type hpaSpec struct {
	ScaleTargetRef crossVersionRef `yaml:"scaleTargetRef"`
	MinReplicas    int             `yaml:"minReplicas"`
	MaxReplicas    int             `yaml:"maxReplicas"`
	Metrics        []metricSpec    `yaml:"metrics"`
}

type crossVersionRef struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name"`
}

type metricSpec struct {
	Type     string         `yaml:"type"`
	Resource resourceMetric `yaml:"resource"`
}

type resourceMetric struct {
	Name   string       `yaml:"name"`
	Target metricTarget `yaml:"target"`
}

type metricTarget struct {
	Type               string `yaml:"type"`
	AverageUtilization int    `yaml:"averageUtilization"`
}

type ingressSpec struct {
	IngressClassName string        `yaml:"ingressClassName"`
	TLS              []ingressTLS  `yaml:"tls"`
	Rules            []ingressRule `yaml:"rules"`
}

type ingressTLS struct {
	Hosts      []string `yaml:"hosts"`
	SecretName string   `yaml:"secretName"`
}

type ingressRule struct {
	Host string   `yaml:"host"`
	HTTP ruleHTTP `yaml:"http"`
}

type ruleHTTP struct {
	Paths []ingressPath `yaml:"paths"`
}

type ingressPath struct {
	Path     string         `yaml:"path"`
	PathType string         `yaml:"pathType"`
	Backend  ingressBackend `yaml:"backend"`
}

type ingressBackend struct {
	Service backendService `yaml:"service"`
}

type backendService struct {
	Name string      `yaml:"name"`
	Port backendPort `yaml:"port"`
}

type backendPort struct {
	Number int `yaml:"number"`
}

func namespace(env string) manifest {
	return manifest{
		APIVersion: "v1",
		Kind:       "Namespace",
		Metadata: objectMeta{
			Name:   env,
			Labels: map[string]string{"environment": env},
		},
	}
}

func httpProbe(path string, port, delay, period int) *probe {
	return &probe{
		HTTPGet:             httpGet{Path: path, Port: port},
		InitialDelaySeconds: delay,
		PeriodSeconds:       period,
	}
}

// renderManifests encodes docs as a multi-document YAML stream
func renderManifests(header string, docs ...manifest) (string, error) {
	var buf bytes.Buffer
	if header != "" {
		fmt.Fprintf(&buf, "# %s\n", header)
	}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("failed to encode %s %s: %w", doc.Kind, doc.Metadata.Name, err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to flush manifests: %w", err)
	}
	return buf.String(), nil
}
