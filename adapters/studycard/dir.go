package studycard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"trialgate/domain/core"
	"trialgate/domain/trial"
	"trialgate/internal/errors"
	"trialgate/ports"
)

// Dir serves study cards from a directory layout the extraction
// pipeline writes into: <trial_id>.json holds the current snapshot and
// <trial_id>.history.json the ordered version history. History files
// are optional.
type Dir struct {
	root   string
	reader *Reader
}

var _ ports.CardReader = (*Dir)(nil)

// NewDir opens a card directory.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "open card directory %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("card path %s is not a directory", root)
	}
	reader, err := NewReader()
	if err != nil {
		return nil, err
	}
	return &Dir{root: root, reader: reader}, nil
}

// Current returns the latest snapshot for a trial.
func (d *Dir) Current(_ context.Context, trialID core.TrialID) (*trial.StudyCard, error) {
	raw, err := os.ReadFile(filepath.Join(d.root, trialID.String()+".json"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", core.ErrTrialNotFound, trialID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read card for trial %s", trialID)
	}
	return d.reader.Decode(raw)
}

// History returns the snapshot history for a trial, or nil when none
// has been captured.
func (d *Dir) History(_ context.Context, trialID core.TrialID) (*trial.VersionHistory, error) {
	raw, err := os.ReadFile(filepath.Join(d.root, trialID.String()+".history.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read history for trial %s", trialID)
	}
	return d.reader.DecodeHistory(raw)
}
