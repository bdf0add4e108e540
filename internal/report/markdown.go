// Package report renders audit trails for human review.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	mdparser "github.com/gomarkdown/markdown/parser"

	"trialgate/domain/core"
	"trialgate/domain/scoring"
)

// Markdown renders an audit trail as a readable markdown summary. Only
// formats values already recorded in the trail; nothing is recomputed.
func Markdown(trail scoring.AuditTrail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Failure-risk audit: trial %s\n\n", trail.TrialID)
	fmt.Fprintf(&b, "- Run: `%s`\n", trail.RunID)
	fmt.Fprintf(&b, "- Config revision: `%s`\n", trail.ConfigRevision)
	fmt.Fprintf(&b, "- Scored at: %s\n\n", trail.ScoredAt.Time().Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(&b, "**Final p(fail): %.4f**\n\n", trail.PFail)

	fmt.Fprintf(&b, "## Prior\n\n")
	fmt.Fprintf(&b, "| raw | clamped | logit |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| %.4f | %.4f | %.4f |\n\n", trail.PriorRaw, trail.PriorPi, trail.LogitPrior)

	fmt.Fprintf(&b, "## Gates\n\n")
	fmt.Fprintf(&b, "| gate | fired | LR | signals | rationale |\n|---|---|---|---|---|\n")
	for _, g := range trail.Gates {
		signals := make([]string, len(g.SupportingSignals))
		for i, id := range g.SupportingSignals {
			signals[i] = string(id)
		}
		fmt.Fprintf(&b, "| %s | %t | %.2f | %s | %s |\n",
			g.GateID, g.Fired, g.LRUsed, strings.Join(signals, ", "), g.Rationale)
	}
	fmt.Fprintf(&b, "\nSum of log LRs: %.4f, posterior logit: %.4f (bounds [%.1f, %.1f])\n\n",
		trail.SumLogLR, trail.LogitPost, trail.Bounds.LogitMin, trail.Bounds.LogitMax)

	if len(trail.StopRulesApplied) > 0 {
		fmt.Fprintf(&b, "## Stop rules applied\n\n")
		for _, r := range trail.StopRulesApplied {
			fmt.Fprintf(&b, "- `%s` forced floor %.2f\n", r.RuleID, r.Level)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(trail.EvidenceBySignal) > 0 {
		fmt.Fprintf(&b, "## Evidence\n\n")
		ids := make([]string, 0, len(trail.EvidenceBySignal))
		for id := range trail.EvidenceBySignal {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		for _, idStr := range ids {
			id := core.SignalID(idStr)
			entry := trail.EvidenceBySignal[id]
			if len(entry.Spans) == 0 {
				fmt.Fprintf(&b, "- **%s** [%s]: no spans captured\n", id, entry.Severity)
				continue
			}
			for _, span := range entry.Spans {
				quote := span.Quote
				if quote == "" {
					quote = "(no quote)"
				}
				fmt.Fprintf(&b, "- **%s** [%s, %s]: %q\n", id, span.SourceID, entry.Severity, quote)
			}
		}
	}

	return b.String()
}

// HTML renders the markdown summary to HTML for the API surface.
func HTML(trail scoring.AuditTrail) []byte {
	md := []byte(Markdown(trail))
	p := mdparser.NewWithExtensions(mdparser.CommonExtensions | mdparser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}
