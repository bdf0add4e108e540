// Package configfile loads the versioned scoring configuration
// document. Parsing, expression compilation and bounds validation all
// happen here, once, at load time; any defect is fatal and no trial
// may be scored until the document is corrected.
package configfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trialgate/domain/core"
	"trialgate/domain/gate"
	"trialgate/domain/scoring"
	"trialgate/domain/signal"
	"trialgate/internal/errors"
)

type document struct {
	Revision  string     `yaml:"revision"`
	Bounds    boundsDoc  `yaml:"bounds"`
	Gates     []gateDoc  `yaml:"gates"`
	StopRules []ruleDoc  `yaml:"stop_rules"`
}

type boundsDoc struct {
	LRMin      float64 `yaml:"lr_min"`
	LRMax      float64 `yaml:"lr_max"`
	LogitMin   float64 `yaml:"logit_min"`
	LogitMax   float64 `yaml:"logit_max"`
	PriorFloor float64 `yaml:"prior_floor"`
	PriorCeil  float64 `yaml:"prior_ceil"`
}

type gateDoc struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	When       string             `yaml:"when"`
	BaseLR     float64            `yaml:"base_lr"`
	SeverityLR map[string]float64 `yaml:"severity_lr"`
}

type ruleDoc struct {
	ID              string           `yaml:"id"`
	When            string           `yaml:"when"`
	Floor           float64          `yaml:"floor"`
	RequireSeverity *ruleSeverityDoc `yaml:"require_severity"`
}

type ruleSeverityDoc struct {
	Signal  string `yaml:"signal"`
	AtLeast string `yaml:"at_least"`
}

// Load reads and validates the configuration document at path.
func Load(path string) (*scoring.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scoring config %s", path)
	}
	return Parse(raw)
}

// Parse validates and compiles a raw configuration document. The
// revision is taken from the document when declared, otherwise derived
// as a fingerprint of the raw bytes.
func Parse(raw []byte) (*scoring.Config, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "parse scoring config")
	}

	known := signal.KnownSignals()

	gates := make([]gate.Definition, 0, len(doc.Gates))
	for _, g := range doc.Gates {
		gateID, err := core.ParseGateID(g.ID)
		if err != nil {
			return nil, core.NewConfigError("gates", err.Error())
		}
		expr, err := gate.Compile(g.ID, g.When, known)
		if err != nil {
			return nil, err
		}
		severityLR := make(map[signal.Severity]float64, len(g.SeverityLR))
		for sev, lr := range g.SeverityLR {
			severityLR[signal.Severity(sev)] = lr
		}
		gates = append(gates, gate.Definition{
			GateID:     gateID,
			Name:       g.Name,
			Expression: expr,
			BaseLR:     g.BaseLR,
			SeverityLR: severityLR,
		})
	}

	rules := make([]scoring.StopRule, 0, len(doc.StopRules))
	for _, r := range doc.StopRules {
		pred, err := gate.Compile(r.ID, r.When, known)
		if err != nil {
			return nil, err
		}
		rule := scoring.StopRule{
			RuleID:    core.RuleID(r.ID),
			Predicate: pred,
			Floor:     r.Floor,
		}
		if r.RequireSeverity != nil {
			sigID, err := core.ParseSignalID(r.RequireSeverity.Signal)
			if err != nil {
				return nil, core.NewConfigError("stop_rules", err.Error())
			}
			rule.RequireSeverity = &scoring.SeverityRequirement{
				Signal:  sigID,
				AtLeast: signal.Severity(r.RequireSeverity.AtLeast),
			}
		}
		rules = append(rules, rule)
	}

	revision := core.ConfigRevision(doc.Revision)
	if revision.IsEmpty() {
		revision = core.FingerprintConfig(raw)
	}

	cfg, err := scoring.NewConfig(revision, scoring.Bounds{
		LRMin:      doc.Bounds.LRMin,
		LRMax:      doc.Bounds.LRMax,
		LogitMin:   doc.Bounds.LogitMin,
		LogitMax:   doc.Bounds.LogitMax,
		PriorFloor: doc.Bounds.PriorFloor,
		PriorCeil:  doc.Bounds.PriorCeil,
	}, gates, rules)
	if err != nil {
		return nil, fmt.Errorf("scoring config rejected: %w", err)
	}
	return cfg, nil
}
