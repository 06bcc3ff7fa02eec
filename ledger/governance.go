package ledger

import (
	"time"

	"pharmatrace/model"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric/common/flogging"
)

var governanceLogger = flogging.MustGetLogger("pharmatrace.governance")

func (l *Ledger) governanceConfig(op string) (*model.GovernanceConfig, error) {
	var cfg model.GovernanceConfig
	found, err := l.getJSON(op, governanceKey, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.GovernanceConfig{ObjectType: "Governance", Owners: []string{}}, nil
	}
	return &cfg, nil
}

func (l *Ledger) requireOwner(op, caller string) (*model.GovernanceConfig, error) {
	cfg, err := l.governanceConfig(op)
	if err != nil {
		return nil, err
	}
	if !cfg.IsOwner(caller) {
		return nil, errf(KindUnauthorized, op, "identity '%s' is not a governance owner", caller)
	}
	return cfg, nil
}

// AddOwner adds an identity to the multi-signature owner set. Admin-only.
func (l *Ledger) AddOwner(caller, owner string, now time.Time) error {
	const op = "AddOwner"
	if err := requiredString(op, "owner", owner); err != nil {
		return err
	}
	if err := l.requireRole(op, caller, model.RoleAdmin); err != nil {
		return err
	}

	release := l.lockEntity(governanceKey)
	defer release()

	cfg, err := l.governanceConfig(op)
	if err != nil {
		return err
	}
	if cfg.IsOwner(owner) {
		return errf(KindAlreadyExists, op, "identity '%s' is already an owner", owner)
	}
	cfg.Owners = append(cfg.Owners, owner)
	if cfg.Quorum == 0 {
		cfg.Quorum = 1
	}
	cfg.LastUpdatedAt = now
	if err := l.putJSON(op, governanceKey, cfg); err != nil {
		return err
	}
	governanceLogger.Infof("AddOwner: '%s' added by '%s'; %d owners, quorum %d", owner, caller, len(cfg.Owners), cfg.Quorum)
	return l.appendEvent(op, model.EventOwnerAdded, owner, caller, now,
		map[string]interface{}{"owners": len(cfg.Owners), "quorum": cfg.Quorum})
}

// RemoveOwner removes an identity from the owner set, clamping the quorum
// down if it would otherwise exceed the remaining owner count.
func (l *Ledger) RemoveOwner(caller, owner string, now time.Time) error {
	const op = "RemoveOwner"
	if err := requiredString(op, "owner", owner); err != nil {
		return err
	}
	if err := l.requireRole(op, caller, model.RoleAdmin); err != nil {
		return err
	}

	release := l.lockEntity(governanceKey)
	defer release()

	cfg, err := l.governanceConfig(op)
	if err != nil {
		return err
	}
	if !cfg.IsOwner(owner) {
		return errf(KindInvalidOwner, op, "identity '%s' is not an owner", owner)
	}
	if len(cfg.Owners) == 1 {
		return errf(KindBadInput, op, "cannot remove the last owner")
	}
	kept := []string{}
	for _, o := range cfg.Owners {
		if o != owner {
			kept = append(kept, o)
		}
	}
	cfg.Owners = kept
	if cfg.Quorum > len(cfg.Owners) {
		cfg.Quorum = len(cfg.Owners)
	}
	cfg.LastUpdatedAt = now
	if err := l.putJSON(op, governanceKey, cfg); err != nil {
		return err
	}
	governanceLogger.Infof("RemoveOwner: '%s' removed by '%s'; %d owners, quorum %d", owner, caller, len(cfg.Owners), cfg.Quorum)
	return l.appendEvent(op, model.EventOwnerRemoved, owner, caller, now,
		map[string]interface{}{"owners": len(cfg.Owners), "quorum": cfg.Quorum})
}

// SetQuorum sets the minimum affirmative votes for a proposal to pass.
func (l *Ledger) SetQuorum(caller string, quorum int, now time.Time) error {
	const op = "SetQuorum"
	if err := l.requireRole(op, caller, model.RoleAdmin); err != nil {
		return err
	}

	release := l.lockEntity(governanceKey)
	defer release()

	cfg, err := l.governanceConfig(op)
	if err != nil {
		return err
	}
	if quorum < 1 || quorum > len(cfg.Owners) {
		return errf(KindInvalidQuorum, op, "quorum %d must be within [1, %d]", quorum, len(cfg.Owners))
	}
	cfg.Quorum = quorum
	cfg.LastUpdatedAt = now
	if err := l.putJSON(op, governanceKey, cfg); err != nil {
		return err
	}
	governanceLogger.Infof("SetQuorum: quorum set to %d by '%s'", quorum, caller)
	return l.appendEvent(op, model.EventQuorumChanged, governanceKey, caller, now,
		map[string]interface{}{"quorum": quorum})
}

// CreateProposal opens a new proposal with a deadline of now + votingPeriod.
// Owner-only.
func (l *Ledger) CreateProposal(caller, description string, votingPeriod time.Duration, now time.Time) (*model.Proposal, error) {
	const op = "CreateProposal"
	if err := requiredString(op, "description", description); err != nil {
		return nil, err
	}
	if votingPeriod < minVotingPeriod || votingPeriod > maxVotingPeriod {
		return nil, errf(KindBadInput, op, "votingPeriod %s must be within [%s, %s]", votingPeriod, minVotingPeriod, maxVotingPeriod)
	}
	if _, err := l.requireOwner(op, caller); err != nil {
		return nil, err
	}

	proposal := &model.Proposal{
		ObjectType:  proposalObjectType,
		ID:          uuid.NewString(),
		Description: description,
		Proposer:    caller,
		CreatedAt:   now,
		Deadline:    now.Add(votingPeriod),
		Voted:       map[string]bool{},
	}
	if err := l.putJSON(op, proposalKey(proposal.ID), proposal); err != nil {
		return nil, err
	}
	governanceLogger.Infof("CreateProposal: '%s' proposed by '%s', deadline %s", proposal.ID, caller, proposal.Deadline.Format(time.RFC3339))
	if err := l.appendEvent(op, model.EventProposalCreated, proposal.ID, caller, now, map[string]interface{}{
		"description": description,
		"deadline":    proposal.Deadline.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	return proposal, nil
}

// Vote casts the caller's vote on an open proposal. One vote per owner per
// proposal; a failed vote never changes either tally.
func (l *Ledger) Vote(caller, proposalID string, support bool, now time.Time) error {
	const op = "Vote"
	if err := requiredString(op, "proposalID", proposalID); err != nil {
		return err
	}
	if _, err := l.requireOwner(op, caller); err != nil {
		return err
	}

	release := l.lockEntity(proposalKey(proposalID))
	defer release()

	var proposal model.Proposal
	found, err := l.getJSON(op, proposalKey(proposalID), &proposal)
	if err != nil {
		return err
	}
	if !found {
		return errf(KindProposalNotFound, op, "proposal '%s' does not exist", proposalID)
	}
	if proposal.Executed || !now.Before(proposal.Deadline) {
		return errf(KindVotingClosed, op, "voting on proposal '%s' is closed", proposalID)
	}
	if proposal.Voted[caller] {
		return errf(KindAlreadyVoted, op, "owner '%s' has already voted on proposal '%s'", caller, proposalID)
	}
	if proposal.Voted == nil {
		proposal.Voted = map[string]bool{}
	}
	proposal.Voted[caller] = true
	if support {
		proposal.YesVotes++
	} else {
		proposal.NoVotes++
	}
	if err := l.putJSON(op, proposalKey(proposalID), &proposal); err != nil {
		return err
	}
	governanceLogger.Infof("Vote: owner '%s' voted support=%v on '%s' (%d yes / %d no)", caller, support, proposalID, proposal.YesVotes, proposal.NoVotes)
	return l.appendEvent(op, model.EventVoteCast, proposalID, caller, now,
		map[string]interface{}{"support": support, "yesVotes": proposal.YesVotes, "noVotes": proposal.NoVotes})
}

// ExecuteProposal closes a proposal after its deadline and freezes the
// outcome: passed iff yes votes reach the quorum and strictly exceed no
// votes. Evaluated exactly once; a second execution attempt fails.
func (l *Ledger) ExecuteProposal(caller, proposalID string, now time.Time) (bool, error) {
	const op = "ExecuteProposal"
	if err := requiredString(op, "proposalID", proposalID); err != nil {
		return false, err
	}
	cfg, err := l.requireOwner(op, caller)
	if err != nil {
		return false, err
	}

	release := l.lockEntity(proposalKey(proposalID))
	defer release()

	var proposal model.Proposal
	found, err := l.getJSON(op, proposalKey(proposalID), &proposal)
	if err != nil {
		return false, err
	}
	if !found {
		return false, errf(KindProposalNotFound, op, "proposal '%s' does not exist", proposalID)
	}
	if proposal.Executed {
		return false, errf(KindVotingClosed, op, "proposal '%s' has already been executed", proposalID)
	}
	if now.Before(proposal.Deadline) {
		return false, errf(KindVotingClosed, op, "proposal '%s' deadline has not passed yet", proposalID)
	}

	proposal.Executed = true
	proposal.Passed = proposal.YesVotes >= cfg.Quorum && proposal.YesVotes > proposal.NoVotes
	proposal.ExecutedAt = now
	if err := l.putJSON(op, proposalKey(proposalID), &proposal); err != nil {
		return false, err
	}
	governanceLogger.Infof("ExecuteProposal: '%s' executed by '%s', passed=%v (%d yes / %d no, quorum %d)",
		proposalID, caller, proposal.Passed, proposal.YesVotes, proposal.NoVotes, cfg.Quorum)
	if err := l.appendEvent(op, model.EventProposalExecuted, proposalID, caller, now, map[string]interface{}{
		"passed":   proposal.Passed,
		"yesVotes": proposal.YesVotes,
		"noVotes":  proposal.NoVotes,
		"quorum":   cfg.Quorum,
	}); err != nil {
		return false, err
	}
	return proposal.Passed, nil
}

// GetProposal returns one proposal by id.
func (l *Ledger) GetProposal(proposalID string) (*model.Proposal, error) {
	const op = "GetProposal"
	var proposal model.Proposal
	found, err := l.getJSON(op, proposalKey(proposalID), &proposal)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errf(KindProposalNotFound, op, "proposal '%s' does not exist", proposalID)
	}
	return &proposal, nil
}

// Owners returns the current owner set.
func (l *Ledger) Owners() ([]string, error) {
	cfg, err := l.governanceConfig("Owners")
	if err != nil {
		return nil, err
	}
	return cfg.Owners, nil
}

// Quorum returns the current quorum threshold.
func (l *Ledger) Quorum() (int, error) {
	cfg, err := l.governanceConfig("Quorum")
	if err != nil {
		return 0, err
	}
	return cfg.Quorum, nil
}
