package model

import "time"

// ComplianceStatus defines the possible states of a compliance check record.
// There is deliberately no transition graph between these states: compliance
// re-review is non-linear and any status is reachable from any other.
type ComplianceStatus string

const (
	CompliancePending           ComplianceStatus = "PENDING"
	CompliancePassed            ComplianceStatus = "PASSED"
	ComplianceFailed            ComplianceStatus = "FAILED"
	ComplianceRequiresAttention ComplianceStatus = "REQUIRES_ATTENTION"
	ComplianceUnderReview       ComplianceStatus = "UNDER_REVIEW"
)

// ValidComplianceStatuses defines the set of permissible record statuses.
var ValidComplianceStatuses = map[ComplianceStatus]bool{
	CompliancePending:           true,
	CompliancePassed:            true,
	ComplianceFailed:            true,
	ComplianceRequiresAttention: true,
	ComplianceUnderReview:       true,
}

// ComplianceRecord is a single check-type evaluation outcome for a batch.
// Besides Batch this is the only entity mutated after creation: status, passed
// flag and notes are updated in place by authorized reviewers.
type ComplianceRecord struct {
	ObjectType        string           `json:"objectType"` // "Compliance"
	ID                string           `json:"id"`
	BatchID           string           `json:"batchId"`
	CheckType         string           `json:"checkType"`
	Status            ComplianceStatus `json:"status"`
	Passed            bool             `json:"passed"`
	Auditor           string           `json:"auditor"` // Identity that created the record
	Notes             string           `json:"notes"`
	Findings          string           `json:"findings"`
	CorrectiveActions string           `json:"correctiveActions"`
	EvidenceRefs      []string         `json:"evidenceRefs"`
	CreatedAt         time.Time        `json:"createdAt"`
	LastUpdatedAt     time.Time        `json:"lastUpdatedAt"`
	LastUpdatedBy     string           `json:"lastUpdatedBy"`
}

// AuditEntry is an immutable historical record of an audit event. Corrections
// are new entries, never edits.
type AuditEntry struct {
	ID              string    `json:"id"`
	BatchID         string    `json:"batchId"`
	Auditor         string    `json:"auditor"`
	AuditType       string    `json:"auditType"`
	Findings        string    `json:"findings"`
	Recommendations string    `json:"recommendations"`
	Result          string    `json:"result"`
	EvidenceRefs    []string  `json:"evidenceRefs"`
	CreatedAt       time.Time `json:"createdAt"`
}
