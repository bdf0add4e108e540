package configfile

import (
	"trialgate/domain/scoring"
)

// defaultDocument is the calibrated configuration the engine ships
// with. Deployments override it with SCORING_CONFIG.
const defaultDocument = `
revision: trialgate-default-v1
bounds:
  lr_min: 0.25
  lr_max: 20.0
  logit_min: -8.0
  logit_max: 8.0
  prior_floor: 0.01
  prior_ceil: 0.99
gates:
  - id: G1
    name: alpha_meltdown
    when: "S1 & S2"
    base_lr: 3.5
    severity_lr:
      High: 5.0
  - id: G2
    name: analysis_gaming
    when: "S3 & S4"
    base_lr: 2.8
    severity_lr:
      High: 4.0
  - id: G3
    name: implausible_margin
    when: "S5 & (S6 | S7)"
    base_lr: 4.2
    severity_lr:
      High: 6.0
      Medium: 4.2
  - id: G4
    name: design_fragility
    when: "S8 & S9"
    base_lr: 2.2
stop_rules:
  - id: R1
    when: "S1"
    require_severity:
      signal: S1
      at_least: High
    floor: 0.97
  - id: R2
    when: "S3 & S8"
    floor: 0.90
`

// Default returns the embedded default configuration. The document is
// under test; a panic here means the build itself is broken.
func Default() *scoring.Config {
	cfg, err := Parse([]byte(defaultDocument))
	if err != nil {
		panic("embedded default scoring config invalid: " + err.Error())
	}
	return cfg
}
