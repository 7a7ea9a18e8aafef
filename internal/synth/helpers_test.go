package synth

import (
	"errors"
	"io"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/infra-nli/internal/domain"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func awsProd() domain.ResolvedContext {
	return domain.ResolvedContext{Provider: domain.AWS, Environment: domain.Production}
}

// assertHCL checks that a top-level or nested attribute is set to value
func assertHCL(t *testing.T, code, key, value string) {
	t.Helper()
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(key) + `\s*=\s*` + regexp.QuoteMeta(value) + `\s*$`)
	assert.Regexp(t, re, code, "expected %s = %s", key, value)
}

type yamlDoc = map[string]interface{}

func decodeDocs(t *testing.T, stream string) []yamlDoc {
	t.Helper()
	dec := yaml.NewDecoder(strings.NewReader(stream))
	var docs []yamlDoc
	for {
		var doc yamlDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	return docs
}

func findKind(t *testing.T, docs []yamlDoc, kind string) yamlDoc {
	t.Helper()
	for _, d := range docs {
		if d["kind"] == kind {
			return d
		}
	}
	t.Fatalf("no %s document in manifest", kind)
	return nil
}

func kinds(docs []yamlDoc) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["kind"].(string))
	}
	return out
}

// dig walks nested maps by key
func dig(t *testing.T, v interface{}, path ...string) interface{} {
	t.Helper()
	for _, key := range path {
		m, ok := v.(map[string]interface{})
		require.True(t, ok, "%s: not a map", key)
		v, ok = m[key]
		require.True(t, ok, "missing key %s", key)
	}
	return v
}

func assertBreakdownSums(t *testing.T, est domain.CostEstimate) {
	t.Helper()
	var sum float64
	for _, l := range est.Breakdown {
		sum += l.Cost
	}
	assert.Equal(t, est.Monthly, int(math.Round(sum)), "breakdown %v", est.Breakdown)
	assert.Equal(t, "USD", est.Currency)
}
