package model

import "time"

// Event names emitted by the command processor.
const (
	EventAccessGranted           = "AccessGranted"
	EventAccessRevoked           = "AccessRevoked"
	EventStakeholderRegistered   = "StakeholderRegistered"
	EventStakeholderKYCUpdated   = "StakeholderKYCUpdated"
	EventStakeholderActiveSet    = "StakeholderActiveSet"
	EventBatchCreated            = "BatchCreated"
	EventBatchStatusChanged      = "BatchStatusChanged"
	EventCustodyTransferred      = "CustodyTransferred"
	EventTelemetryRecorded       = "TelemetryRecorded"
	EventTelemetryBoundsUpdated  = "TelemetryBoundsUpdated"
	EventComplianceCheckAdded    = "ComplianceCheckAdded"
	EventComplianceStatusUpdated = "ComplianceStatusUpdated"
	EventAuditEntryRecorded      = "AuditEntryRecorded"
	EventOwnerAdded              = "OwnerAdded"
	EventOwnerRemoved            = "OwnerRemoved"
	EventQuorumChanged           = "QuorumChanged"
	EventProposalCreated         = "ProposalCreated"
	EventVoteCast                = "VoteCast"
	EventProposalExecuted        = "ProposalExecuted"
)

// Event is one immutable entry of the ordered event feed. Every successful
// command emits exactly one; external consumers replay the feed by sequence.
type Event struct {
	Sequence  uint64                 `json:"sequence"`
	Type      string                 `json:"type"`
	EntityID  string                 `json:"entityId"`
	Actor     string                 `json:"actor"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}
