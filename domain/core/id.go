package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	TrialID  ID
	RunID    ID
	SignalID ID
	GateID   ID
	RuleID   ID
	SourceID ID
)

// String conversions for domain IDs
func (id TrialID) String() string  { return ID(id).String() }
func (id RunID) String() string    { return ID(id).String() }
func (id SignalID) String() string { return ID(id).String() }
func (id GateID) String() string   { return ID(id).String() }
func (id RuleID) String() string   { return ID(id).String() }
func (id SourceID) String() string { return ID(id).String() }

// NewRunID mints a fresh run identifier for one scoring pass
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseTrialID parses a string into TrialID
func ParseTrialID(s string) (TrialID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("trial ID cannot be empty")
	}
	return TrialID(strings.TrimSpace(s)), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(strings.TrimSpace(s)), nil
}

// ParseSignalID parses a string into SignalID
func ParseSignalID(s string) (SignalID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("signal ID cannot be empty")
	}
	return SignalID(strings.ToUpper(strings.TrimSpace(s))), nil
}

// ParseGateID parses a string into GateID
func ParseGateID(s string) (GateID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("gate ID cannot be empty")
	}
	return GateID(strings.TrimSpace(s)), nil
}
