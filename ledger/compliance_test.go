package ledger

import (
	"testing"
	"time"

	"pharmatrace/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const auditorID = "x509::CN=auditor1"

func newComplianceLedger(t *testing.T) *Ledger {
	t.Helper()
	l, _ := newTestLedger(t)
	addParticipant(t, l, producerID, "producer1", model.RoleProducer)
	require.NoError(t, l.GrantRole(adminID, inspectorID, model.RoleInspector, t0))
	require.NoError(t, l.GrantRole(adminID, auditorID, model.RoleAuditor, t0))
	createTestBatch(t, l, producerID, "B1")
	return l
}

func TestAddComplianceCheck(t *testing.T) {
	l := newComplianceLedger(t)

	record, err := l.AddComplianceCheck(inspectorID, "B1", "cold-chain-review",
		"initial review", "none", "", []string{"doc://report-1"}, t0)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, model.CompliancePending, record.Status, "new records open in PENDING")
	assert.False(t, record.Passed)
	assert.Equal(t, inspectorID, record.Auditor)
	assert.Equal(t, []string{"doc://report-1"}, record.EvidenceRefs)

	fetched, err := l.GetComplianceRecord(record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.CheckType, fetched.CheckType)
}

func TestAddComplianceCheckGuards(t *testing.T) {
	l := newComplianceLedger(t)

	_, err := l.AddComplianceCheck(producerID, "B1", "cold-chain-review", "", "", "", nil, t0)
	requireKind(t, err, KindUnauthorized)

	_, err = l.AddComplianceCheck(inspectorID, "NOPE", "cold-chain-review", "", "", "", nil, t0)
	requireKind(t, err, KindNotFound)

	_, err = l.AddComplianceCheck(inspectorID, "B1", "", "", "", "", nil, t0)
	requireKind(t, err, KindBadInput)

	refs := make([]string, maxEvidenceRefs+1)
	for i := range refs {
		refs[i] = "doc://x"
	}
	_, err = l.AddComplianceCheck(inspectorID, "B1", "review", "", "", "", refs, t0)
	requireKind(t, err, KindBadInput)
}

func TestUpdateComplianceStatus(t *testing.T) {
	l := newComplianceLedger(t)
	record, err := l.AddComplianceCheck(inspectorID, "B1", "gmp-audit", "opening notes", "", "", nil, t0)
	require.NoError(t, err)

	requireKind(t, l.UpdateComplianceStatus(producerID, record.ID, model.CompliancePassed, true, "", t0), KindUnauthorized)
	requireKind(t, l.UpdateComplianceStatus(auditorID, "nope", model.CompliancePassed, true, "", t0), KindNotFound)
	requireKind(t, l.UpdateComplianceStatus(auditorID, record.ID, "GREENLIT", true, "", t0), KindBadInput)

	// An empty notes argument keeps the existing notes: a verdict flip must
	// not erase the written record. Notes change only by replacement.
	require.NoError(t, l.UpdateComplianceStatus(auditorID, record.ID, model.ComplianceUnderReview, false, "", t0.Add(time.Hour)))
	updated, err := l.GetComplianceRecord(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplianceUnderReview, updated.Status)
	assert.Equal(t, "opening notes", updated.Notes)
	assert.Equal(t, auditorID, updated.LastUpdatedBy)

	require.NoError(t, l.UpdateComplianceStatus(auditorID, record.ID, model.CompliancePassed, true, "all clear", t0.Add(2*time.Hour)))
	updated, err = l.GetComplianceRecord(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CompliancePassed, updated.Status)
	assert.True(t, updated.Passed)
	assert.Equal(t, "all clear", updated.Notes)

	// No transition graph: any status is reachable from any other.
	require.NoError(t, l.UpdateComplianceStatus(auditorID, record.ID, model.CompliancePending, false, "", t0.Add(3*time.Hour)))
}

func TestRecordAuditEntry(t *testing.T) {
	l := newComplianceLedger(t)

	_, err := l.RecordAuditEntry(inspectorID, "B1", "site-visit", "", "", "OK", nil, t0)
	requireKind(t, err, KindUnauthorized)

	_, err = l.RecordAuditEntry(auditorID, "NOPE", "site-visit", "", "", "OK", nil, t0)
	requireKind(t, err, KindNotFound)

	first, err := l.RecordAuditEntry(auditorID, "B1", "site-visit", "minor gaps", "retrain staff", "CONDITIONAL", nil, t0)
	require.NoError(t, err)
	second, err := l.RecordAuditEntry(auditorID, "B1", "follow-up", "resolved", "", "OK", nil, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	trail, err := l.AuditTrailForBatch("B1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "site-visit", trail[0].AuditType)
	assert.Equal(t, "follow-up", trail[1].AuditType)
}

func TestComplianceRecordsForBatch(t *testing.T) {
	l := newComplianceLedger(t)
	createTestBatch(t, l, producerID, "B2")

	_, err := l.AddComplianceCheck(inspectorID, "B1", "check-a", "", "", "", nil, t0)
	require.NoError(t, err)
	_, err = l.AddComplianceCheck(inspectorID, "B1", "check-b", "", "", "", nil, t0.Add(time.Hour))
	require.NoError(t, err)
	_, err = l.AddComplianceCheck(inspectorID, "B2", "check-c", "", "", "", nil, t0)
	require.NoError(t, err)

	records, err := l.ComplianceRecordsForBatch("B1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "check-a", records[0].CheckType, "oldest first")
	assert.Equal(t, "check-b", records[1].CheckType)
}

func TestIsBatchCompliant(t *testing.T) {
	l := newComplianceLedger(t)

	// No records at all: not compliant.
	compliant, err := l.IsBatchCompliant("B1")
	require.NoError(t, err)
	assert.False(t, compliant)

	// Only pending records: still not compliant.
	pending, err := l.AddComplianceCheck(inspectorID, "B1", "check-a", "", "", "", nil, t0)
	require.NoError(t, err)
	compliant, err = l.IsBatchCompliant("B1")
	require.NoError(t, err)
	assert.False(t, compliant)

	// One passed record: compliant.
	require.NoError(t, l.UpdateComplianceStatus(auditorID, pending.ID, model.CompliancePassed, true, "", t0))
	compliant, err = l.IsBatchCompliant("B1")
	require.NoError(t, err)
	assert.True(t, compliant)

	// Any failed record vetoes compliance.
	failed, err := l.AddComplianceCheck(inspectorID, "B1", "check-b", "", "", "", nil, t0)
	require.NoError(t, err)
	require.NoError(t, l.UpdateComplianceStatus(auditorID, failed.ID, model.ComplianceFailed, false, "", t0))
	compliant, err = l.IsBatchCompliant("B1")
	require.NoError(t, err)
	assert.False(t, compliant)
}
