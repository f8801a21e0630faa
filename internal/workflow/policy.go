package workflow

import (
	"fmt"
	"strings"
)

// QuorumPolicy decides which committee size an application's decisions are
// measured against.
type QuorumPolicy string

const (
	// QuorumLive counts committee users at every assessment.
	QuorumLive QuorumPolicy = "live"
	// QuorumFrozen counts committee users once, at the first assessment, and keeps
	// that number for the rest of the review.
	QuorumFrozen QuorumPolicy = "frozen"
)

// ParseQuorumPolicy resolves a policy name. An empty value selects QuorumLive.
func ParseQuorumPolicy(value string) (QuorumPolicy, error) {
	switch QuorumPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", QuorumLive:
		return QuorumLive, nil
	case QuorumFrozen:
		return QuorumFrozen, nil
	default:
		return "", fmt.Errorf("unknown quorum policy %q", value)
	}
}

// Policy configures the engine.
type Policy struct {
	Quorum QuorumPolicy
	// StrictTransitions rejects Dean and Principal actions unless the application
	// sits in the matching review stage.
	StrictTransitions bool
}

// DefaultPolicy mirrors the lenient behavior: live quorum, unguarded stage actions.
func DefaultPolicy() Policy {
	return Policy{Quorum: QuorumLive}
}
