package model

import "time"

// GovernanceConfig holds the multi-signature owner set and quorum threshold.
// Mutated only through governance operations; removing an owner clamps the
// quorum down if it would otherwise exceed the new owner count.
type GovernanceConfig struct {
	ObjectType    string    `json:"objectType"` // "Governance"
	Owners        []string  `json:"owners"`
	Quorum        int       `json:"quorum"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// IsOwner reports whether the identity is a member of the owner set.
func (g *GovernanceConfig) IsOwner(identity string) bool {
	if g == nil {
		return false
	}
	for _, o := range g.Owners {
		if o == identity {
			return true
		}
	}
	return false
}

// Proposal is one governance proposal. The lifecycle is open (deadline in the
// future) -> closed (deadline passed) -> executed (terminal; Passed is frozen
// at execution time and never reconsidered).
type Proposal struct {
	ObjectType  string          `json:"objectType"` // "Proposal"
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Proposer    string          `json:"proposer"`
	CreatedAt   time.Time       `json:"createdAt"`
	Deadline    time.Time       `json:"deadline"`
	YesVotes    int             `json:"yesVotes"`
	NoVotes     int             `json:"noVotes"`
	Voted       map[string]bool `json:"voted"` // Owners that have cast a vote
	Executed    bool            `json:"executed"`
	Passed      bool            `json:"passed"` // Meaningful only once Executed
	ExecutedAt  time.Time       `json:"executedAt,omitempty"`
}
