// Package studycard decodes study card snapshots produced by the
// external extraction pipeline. Structural defects are caught by JSON
// schema validation before the card reaches any evaluator; missing
// optional fields are left to the evaluators' insufficiency handling.
package studycard

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"trialgate/domain/trial"
	"trialgate/internal/errors"
)

const schemaName = "studycard.schema.json"

const cardSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["trial_id", "source_id", "version", "captured_at"],
  "properties": {
    "trial_id": {"type": "string", "minLength": 1},
    "source_id": {"type": "string", "minLength": 1},
    "version": {"type": "integer", "minimum": 1},
    "captured_at": {"type": "string", "format": "date-time"},
    "phase": {"type": "string"},
    "is_pivotal": {"type": "boolean"},
    "drug_class": {"type": "string"},
    "last_patient_randomized_at": {"type": "string", "format": "date-time"},
    "planned_enrollment": {"type": "integer", "minimum": 0},
    "endpoints": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "role"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "role": {"enum": ["primary", "secondary"]},
          "measure": {"type": "string"},
          "is_objective": {"type": "boolean"},
          "evidence": {"$ref": "#/$defs/evidence"}
        }
      }
    },
    "arms": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "n": {"type": "integer", "minimum": 0},
          "is_control": {"type": "boolean"}
        }
      }
    },
    "analysis_plan": {
      "type": "object",
      "properties": {
        "population": {"enum": ["ITT", "PP"]},
        "alpha": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
        "assumed_effect": {"type": "number"},
        "assumed_sd": {"type": "number", "exclusiveMinimum": 0},
        "sap_amended": {"type": "boolean"}
      }
    },
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["endpoint_name"],
        "properties": {
          "endpoint_name": {"type": "string", "minLength": 1},
          "population": {"enum": ["ITT", "PP"]},
          "subgroup": {"type": "string"},
          "p_value": {"type": "number", "minimum": 0, "maximum": 1},
          "effect_size": {"type": "number"},
          "is_significant": {"type": "boolean"},
          "evidence": {"$ref": "#/$defs/evidence"}
        }
      }
    }
  },
  "$defs": {
    "evidence": {
      "type": "object",
      "required": ["source_id"],
      "properties": {
        "source_id": {"type": "string", "minLength": 1},
        "quote": {"type": "string"},
        "page": {"type": "integer", "minimum": 0},
        "char_start": {"type": "integer", "minimum": 0},
        "char_end": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

// Reader decodes and validates study card documents.
type Reader struct {
	schema *jsonschema.Schema
}

// NewReader compiles the embedded card schema.
func NewReader() (*Reader, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, strings.NewReader(cardSchema)); err != nil {
		return nil, errors.Wrap(err, "register study card schema")
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		return nil, errors.Wrap(err, "compile study card schema")
	}
	return &Reader{schema: schema}, nil
}

// Decode validates raw JSON against the schema and unmarshals it.
func (r *Reader) Decode(raw []byte) (*trial.StudyCard, error) {
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, errors.Wrap(err, "parse study card JSON")
	}
	if err := r.schema.Validate(generic); err != nil {
		return nil, errors.Wrap(err, "study card failed schema validation")
	}

	var card trial.StudyCard
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, errors.Wrap(err, "decode study card")
	}
	return &card, nil
}

// DecodeFile reads and decodes a study card from disk.
func (r *Reader) DecodeFile(path string) (*trial.StudyCard, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read study card %s", path)
	}
	return r.Decode(raw)
}

// DecodeHistory decodes an ordered snapshot history document.
func (r *Reader) DecodeHistory(raw []byte) (*trial.VersionHistory, error) {
	var versions []json.RawMessage
	if err := json.Unmarshal(raw, &versions); err != nil {
		return nil, errors.Wrap(err, "parse version history JSON")
	}
	history := &trial.VersionHistory{}
	for i, v := range versions {
		card, err := r.Decode(v)
		if err != nil {
			return nil, errors.Wrapf(err, "version %d", i)
		}
		if i == 0 {
			history.TrialID = card.TrialID
		}
		history.Versions = append(history.Versions, *card)
	}
	return history, nil
}

// DecodeHistoryFile reads and decodes a version history from disk.
func (r *Reader) DecodeHistoryFile(path string) (*trial.VersionHistory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read version history %s", path)
	}
	return r.DecodeHistory(raw)
}
