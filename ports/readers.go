package ports

import (
	"context"

	"trialgate/domain/core"
	"trialgate/domain/trial"
)

// CardReader supplies study card snapshots produced by the external
// extraction pipeline.
type CardReader interface {
	Current(ctx context.Context, trialID core.TrialID) (*trial.StudyCard, error)
	History(ctx context.Context, trialID core.TrialID) (*trial.VersionHistory, error)
}

// ClassMetadataReader supplies historical reference statistics for a
// drug class, when available.
type ClassMetadataReader interface {
	ForClass(ctx context.Context, class string) (*trial.ClassMetadata, error)
}
