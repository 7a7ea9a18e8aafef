// Package engine compiles a natural-language command into a Response by
// chaining classification, extraction, context resolution and synthesis.
//
// An Engine holds only immutable options and is safe for concurrent use.
package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/nlp"
	"github.com/infra-nli/internal/synth"
)

// guidance is returned for commands no intent pattern recognises
var guidance = []string{
	"I couldn't understand your request. Try commands like:",
	`- "Create a Kubernetes cluster with 3 nodes"`,
	`- "Deploy a PostgreSQL database with high availability"`,
	`- "Setup a web application with auto-scaling"`,
}

// Engine turns commands into responses
type Engine struct {
	opts synth.Options
}

// New creates an engine that renders with opts
func New(opts synth.Options) *Engine {
	return &Engine{opts: opts}
}

// Handle compiles a single command. It never fails: unrecognised text
// produces a response with Understood set to false.
func (e *Engine) Handle(cmd domain.Command) *domain.Response {
	intent := nlp.Classify(cmd.Text)
	resp := &domain.Response{
		Intent:       intent,
		Entities:     nlp.Extract(cmd.Text),
		Alternatives: []domain.Alternative{},
	}

	rc := nlp.Resolve(cmd.Context, cmd.Text)
	out, ok := e.synthesize(intent, resp.Entities, rc)
	if !ok {
		resp.GeneratedCode = domain.GeneratedCode{}
		resp.EstimatedCost = domain.ZeroEstimate()
		resp.Recommendations = append([]string(nil), guidance...)
		return resp
	}

	resp.Understood = true
	resp.GeneratedCode = out.Code
	resp.EstimatedCost = out.Estimate
	resp.Recommendations = out.Recommendations
	resp.Alternatives = synth.Alternatives(intent, rc, out.Estimate)

	if note, over := budgetNote(out.Estimate, cmd.Context); over {
		resp.Recommendations = append(resp.Recommendations, note)
	}

	return resp
}

// synthesize dispatches to the synthesizer for intent. It reports false
// for intents that name no resource family.
func (e *Engine) synthesize(intent domain.Intent, ent domain.Entities, rc domain.ResolvedContext) (synth.Output, bool) {
	if !intent.IsKnown() {
		return synth.Output{}, false
	}
	switch intent {
	case domain.IntentCreateCluster:
		return synth.Cluster(ent, rc, e.opts), true
	case domain.IntentCreateDatabase:
		return synth.Database(ent, rc, e.opts), true
	case domain.IntentCreateWebApp:
		return synth.WebApp(ent, rc, e.opts), true
	case domain.IntentCreateLoadBalancer:
		return synth.LoadBalancer(), true
	case domain.IntentCreateStorage:
		return synth.Storage(), true
	case domain.IntentCreateNetwork:
		return synth.Network(), true
	default:
		return synth.Output{}, false
	}
}

// budgetNote reports when a positive budget is below the estimate.
// Non-finite budgets are treated as absent.
func budgetNote(est domain.CostEstimate, c *domain.CommandContext) (string, bool) {
	if c == nil || c.Budget == nil {
		return "", false
	}
	if b := *c.Budget; math.IsNaN(b) || math.IsInf(b, 0) || b <= 0 {
		return "", false
	}
	budget := decimal.NewFromFloat(*c.Budget)
	monthly := decimal.NewFromInt(int64(est.Monthly))
	if !monthly.GreaterThan(budget) {
		return "", false
	}
	return fmt.Sprintf("Estimated monthly cost $%s exceeds budget $%s", monthly.String(), budget.StringFixed(2)), true
}
