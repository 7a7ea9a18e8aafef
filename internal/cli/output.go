package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/engine"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
	outputCode  outputFormat = "code"
)

func parseOutput(s string, allowCode bool) (outputFormat, error) {
	switch o := outputFormat(strings.ToLower(s)); o {
	case outputTable, outputJSON, outputYAML:
		return o, nil
	case outputCode:
		if allowCode {
			return o, nil
		}
	}
	if allowCode {
		return "", fmt.Errorf("unknown output %q (use table, json, yaml or code)", s)
	}
	return "", fmt.Errorf("unknown output %q (use table, json or yaml)", s)
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// sortedFormats returns the formats present in code in a stable order
func sortedFormats(code domain.GeneratedCode) []domain.ArtifactFormat {
	formats := make([]domain.ArtifactFormat, 0, len(code))
	for f := range code {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

func renderResponse(w io.Writer, resp *domain.Response, output outputFormat, format domain.ArtifactFormat) error {
	switch output {
	case outputJSON:
		return writeJSON(w, resp)
	case outputYAML:
		return writeYAML(w, resp)
	case outputCode:
		return displayCode(w, resp, format)
	default:
		displayResponse(w, resp)
		return nil
	}
}

func displayCode(w io.Writer, resp *domain.Response, format domain.ArtifactFormat) error {
	if !resp.Understood {
		for _, line := range resp.Recommendations {
			fmt.Fprintln(w, line)
		}
		return nil
	}

	if format != "" {
		code, ok := resp.GeneratedCode[format]
		if !ok {
			return fmt.Errorf("no %s output for intent %s", format, resp.Intent)
		}
		fmt.Fprint(w, ensureNewline(code))
		return nil
	}

	for i, f := range sortedFormats(resp.GeneratedCode) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# ----- %s -----\n", f)
		fmt.Fprint(w, ensureNewline(resp.GeneratedCode[f]))
	}
	return nil
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func displayResponse(w io.Writer, resp *domain.Response) {
	if !resp.Understood {
		errorColor.Fprintln(w, "❓ Could not understand the command.")
		fmt.Fprintln(w)
		for _, line := range resp.Recommendations {
			fmt.Fprintf(w, "   %s\n", line)
		}
		return
	}

	successColor.Fprintf(w, "✅ Intent: %s\n", resp.Intent)
	if ents := formatEntities(resp.Entities); ents != "" {
		fmt.Fprintf(w, "📦 Entities: %s\n", ents)
	}
	fmt.Fprintln(w)

	headerColor.Fprintf(w, "💰 ESTIMATED COST: $%d/month (%s)\n", resp.EstimatedCost.Monthly, resp.EstimatedCost.Currency)
	fmt.Fprintln(w, rule)
	if len(resp.EstimatedCost.Breakdown) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RESOURCE\tMONTHLY")
		fmt.Fprintln(tw, "--------\t-------")
		for _, line := range resp.EstimatedCost.Breakdown {
			fmt.Fprintf(tw, "%s\t$%.2f\n", line.Resource, line.Cost)
		}
		tw.Flush()
	} else {
		fmt.Fprintln(w, "No billable resources priced for this request.")
	}

	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "💡 RECOMMENDATIONS")
		fmt.Fprintln(w, rule)
		for _, rec := range resp.Recommendations {
			fmt.Fprintf(w, "   • %s\n", rec)
		}
	}

	if len(resp.Alternatives) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "🔀 ALTERNATIVES")
		fmt.Fprintln(w, rule)
		for _, alt := range resp.Alternatives {
			fmt.Fprintf(w, "   • %s", alt.Description)
			if alt.CostSaving > 0 {
				successColor.Fprintf(w, " (save $%.0f/month)", alt.CostSaving)
			}
			fmt.Fprintln(w)
			for _, t := range alt.Tradeoffs {
				warnColor.Fprintf(w, "      ⚠ %s\n", t)
			}
		}
	}

	fmt.Fprintln(w)
	headerColor.Fprintln(w, "📄 GENERATED CODE")
	fmt.Fprintln(w, rule)
	for _, f := range sortedFormats(resp.GeneratedCode) {
		lines := strings.Count(ensureNewline(resp.GeneratedCode[f]), "\n")
		fmt.Fprintf(w, "   %-15s %d lines\n", f, lines)
	}
	fmt.Fprintln(w, "\nUse --output code to print it.")
}

// formatEntities renders the extracted entities as key=value pairs
func formatEntities(e domain.Entities) string {
	var parts []string
	addInt := func(name string, v *int) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%d", name, *v))
		}
	}
	if e.HA() {
		parts = append(parts, "highAvailability")
	}
	if e.AutoScale() {
		parts = append(parts, "autoScaling")
	}
	addInt("nodes", e.Nodes)
	addInt("replicas", e.Replicas)
	addInt("storageSize", e.StorageSize)
	addInt("memory", e.Memory)
	addInt("cpu", e.CPU)
	return strings.Join(parts, ", ")
}

func renderCatalog(w io.Writer, catalog engine.Catalog, output outputFormat) error {
	switch output {
	case outputJSON:
		return writeJSON(w, catalog)
	case outputYAML:
		return writeYAML(w, catalog)
	}

	for _, group := range catalog.Examples {
		headerColor.Fprintf(w, "%s\n", group.Category)
		for _, command := range group.Commands {
			fmt.Fprintf(w, "  • %s\n", command)
		}
		fmt.Fprintln(w)
	}

	providers := make([]string, len(catalog.Providers))
	for i, p := range catalog.Providers {
		providers[i] = p.String()
	}
	environments := make([]string, len(catalog.Environments))
	for i, e := range catalog.Environments {
		environments[i] = e.String()
	}
	fmt.Fprintf(w, "Providers:    %s\n", strings.Join(providers, ", "))
	fmt.Fprintf(w, "Environments: %s\n", strings.Join(environments, ", "))
	fmt.Fprintf(w, "Entities:     %s\n", strings.Join(catalog.Entities, ", "))
	return nil
}

func renderBatch(w io.Writer, results []BatchResult, output outputFormat) error {
	switch output {
	case outputJSON:
		return writeJSON(w, results)
	case outputYAML:
		return writeYAML(w, results)
	}

	var understood, failed, total int
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tINTENT\tMONTHLY\tCOMMAND")
	fmt.Fprintln(tw, "----\t------\t-------\t-------")
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
			fmt.Fprintf(tw, "%d\terror\t-\t%s (%s)\n", r.Line, truncate(r.Command, 50), r.Error)
		default:
			if r.Response.Understood {
				understood++
			}
			total += r.Response.EstimatedCost.Monthly
			fmt.Fprintf(tw, "%d\t%s\t$%d\t%s\n", r.Line, r.Response.Intent, r.Response.EstimatedCost.Monthly, truncate(r.Command, 60))
		}
	}
	tw.Flush()

	fmt.Fprintln(w)
	summary := fmt.Sprintf("Compiled %d commands: %d understood, %d failed. Combined estimate $%d/month", len(results), understood, failed, total)
	if failed > 0 {
		warnColor.Fprintln(w, summary)
	} else {
		successColor.Fprintln(w, summary)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
