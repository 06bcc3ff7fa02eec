package ledger

import (
	"encoding/json"
	"sort"
	"time"

	"pharmatrace/model"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric/common/flogging"
)

var complianceLogger = flogging.MustGetLogger("pharmatrace.compliance")

// AddComplianceCheck opens a new compliance record for a batch in status
// Pending. Returns the generated record; many records may exist per batch.
func (l *Ledger) AddComplianceCheck(caller, batchID, checkType, notes, findings, correctiveActions string,
	evidenceRefs []string, now time.Time) (*model.ComplianceRecord, error) {

	const op = "AddComplianceCheck"
	if err := requiredString(op, "batchID", batchID); err != nil {
		return nil, err
	}
	if err := requiredString(op, "checkType", checkType); err != nil {
		return nil, err
	}
	if err := optionalString(op, "notes", notes, maxNotesLength); err != nil {
		return nil, err
	}
	if err := optionalString(op, "findings", findings, maxNotesLength); err != nil {
		return nil, err
	}
	if err := optionalString(op, "correctiveActions", correctiveActions, maxNotesLength); err != nil {
		return nil, err
	}
	if err := validateEvidenceRefs(op, evidenceRefs); err != nil {
		return nil, err
	}
	if err := l.requireRole(op, caller, model.RoleInspector, model.RoleAuditor); err != nil {
		return nil, err
	}
	if _, found, err := l.batch(op, batchID); err != nil {
		return nil, err
	} else if !found {
		return nil, errf(KindNotFound, op, "batch with ID '%s' does not exist", batchID)
	}

	if evidenceRefs == nil {
		evidenceRefs = []string{}
	}
	record := &model.ComplianceRecord{
		ObjectType:        complianceObjectType,
		ID:                uuid.NewString(),
		BatchID:           batchID,
		CheckType:         checkType,
		Status:            model.CompliancePending,
		Auditor:           caller,
		Notes:             notes,
		Findings:          findings,
		CorrectiveActions: correctiveActions,
		EvidenceRefs:      evidenceRefs,
		CreatedAt:         now,
		LastUpdatedAt:     now,
		LastUpdatedBy:     caller,
	}
	if err := l.putJSON(op, complianceKey(record.ID), record); err != nil {
		return nil, err
	}
	complianceLogger.Infof("AddComplianceCheck: record '%s' (%s) opened for batch '%s' by '%s'", record.ID, checkType, batchID, caller)
	if err := l.appendEvent(op, model.EventComplianceCheckAdded, batchID, caller, now, map[string]interface{}{
		"recordId":  record.ID,
		"checkType": checkType,
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateComplianceStatus mutates a record's status, passed flag and notes in
// place. There is deliberately no transition graph between compliance
// statuses; re-review is non-linear. An empty notes argument keeps the
// existing notes: most reviews only flip the verdict, and a note once written
// is part of the record until replaced by a newer one.
func (l *Ledger) UpdateComplianceStatus(caller, recordID string, newStatus model.ComplianceStatus,
	passed bool, notes string, now time.Time) error {

	const op = "UpdateComplianceStatus"
	if err := requiredString(op, "recordID", recordID); err != nil {
		return err
	}
	if !model.ValidComplianceStatuses[newStatus] {
		return errf(KindBadInput, op, "unknown compliance status '%s'", newStatus)
	}
	if err := optionalString(op, "notes", notes, maxNotesLength); err != nil {
		return err
	}
	if err := l.requireRole(op, caller, model.RoleInspector, model.RoleAuditor, model.RoleRegulator); err != nil {
		return err
	}

	release := l.lockEntity(complianceKey(recordID))
	defer release()

	var record model.ComplianceRecord
	found, err := l.getJSON(op, complianceKey(recordID), &record)
	if err != nil {
		return err
	}
	if !found {
		return errf(KindNotFound, op, "compliance record '%s' does not exist", recordID)
	}
	record.Status = newStatus
	record.Passed = passed
	if notes != "" {
		record.Notes = notes
	}
	record.LastUpdatedAt = now
	record.LastUpdatedBy = caller
	if err := l.putJSON(op, complianceKey(recordID), &record); err != nil {
		return err
	}
	complianceLogger.Infof("UpdateComplianceStatus: record '%s' -> %s (passed=%v) by '%s'", recordID, newStatus, passed, caller)
	return l.appendEvent(op, model.EventComplianceStatusUpdated, record.BatchID, caller, now, map[string]interface{}{
		"recordId": recordID,
		"status":   newStatus,
		"passed":   passed,
	})
}

// RecordAuditEntry appends an immutable audit entry for a batch. Audit
// entries and compliance records are independent logs; a reporting layer
// correlates them by batch id.
func (l *Ledger) RecordAuditEntry(caller, batchID, auditType, findings, recommendations, result string,
	evidenceRefs []string, now time.Time) (*model.AuditEntry, error) {

	const op = "RecordAuditEntry"
	if err := requiredString(op, "batchID", batchID); err != nil {
		return nil, err
	}
	if err := requiredString(op, "auditType", auditType); err != nil {
		return nil, err
	}
	if err := optionalString(op, "findings", findings, maxNotesLength); err != nil {
		return nil, err
	}
	if err := optionalString(op, "recommendations", recommendations, maxNotesLength); err != nil {
		return nil, err
	}
	if err := optionalString(op, "result", result, maxStringInputLength); err != nil {
		return nil, err
	}
	if err := validateEvidenceRefs(op, evidenceRefs); err != nil {
		return nil, err
	}
	if err := l.requireRole(op, caller, model.RoleAuditor); err != nil {
		return nil, err
	}
	if _, found, err := l.batch(op, batchID); err != nil {
		return nil, err
	} else if !found {
		return nil, errf(KindNotFound, op, "batch with ID '%s' does not exist", batchID)
	}

	release := l.lockEntity(auditKey(batchID))
	defer release()

	if evidenceRefs == nil {
		evidenceRefs = []string{}
	}
	entry := model.AuditEntry{
		ID:              uuid.NewString(),
		BatchID:         batchID,
		Auditor:         caller,
		AuditType:       auditType,
		Findings:        findings,
		Recommendations: recommendations,
		Result:          result,
		EvidenceRefs:    evidenceRefs,
		CreatedAt:       now,
	}
	trail := []model.AuditEntry{}
	if _, err := l.getJSON(op, auditKey(batchID), &trail); err != nil {
		return nil, err
	}
	trail = append(trail, entry)
	if err := l.putJSON(op, auditKey(batchID), trail); err != nil {
		return nil, err
	}
	complianceLogger.Infof("RecordAuditEntry: entry '%s' (%s) recorded for batch '%s' by '%s'", entry.ID, auditType, batchID, caller)
	if err := l.appendEvent(op, model.EventAuditEntryRecorded, batchID, caller, now, map[string]interface{}{
		"entryId":   entry.ID,
		"auditType": auditType,
		"result":    result,
	}); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetComplianceRecord returns one record by its generated identifier.
func (l *Ledger) GetComplianceRecord(recordID string) (*model.ComplianceRecord, error) {
	const op = "GetComplianceRecord"
	var record model.ComplianceRecord
	found, err := l.getJSON(op, complianceKey(recordID), &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errf(KindNotFound, op, "compliance record '%s' does not exist", recordID)
	}
	return &record, nil
}

// ComplianceRecordsForBatch returns all records for a batch, oldest first.
func (l *Ledger) ComplianceRecordsForBatch(batchID string) ([]model.ComplianceRecord, error) {
	const op = "ComplianceRecordsForBatch"
	kvs, err := l.store.List(complianceObjectType + keySep)
	if err != nil {
		return nil, wrapf(KindCorrupt, op, err, "failed to scan compliance records")
	}
	records := []model.ComplianceRecord{}
	for _, kv := range kvs {
		var record model.ComplianceRecord
		if err := json.Unmarshal(kv.Value, &record); err != nil {
			return nil, wrapf(KindCorrupt, op, err, "failed to unmarshal compliance record '%s'", kv.Key)
		}
		if record.BatchID == batchID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// AuditTrailForBatch returns all audit entries for a batch in insertion order.
func (l *Ledger) AuditTrailForBatch(batchID string) ([]model.AuditEntry, error) {
	const op = "AuditTrailForBatch"
	if _, found, err := l.batch(op, batchID); err != nil {
		return nil, err
	} else if !found {
		return nil, errf(KindNotFound, op, "batch with ID '%s' does not exist", batchID)
	}
	trail := []model.AuditEntry{}
	if _, err := l.getJSON(op, auditKey(batchID), &trail); err != nil {
		return nil, err
	}
	return trail, nil
}

// IsBatchCompliant is a pure projection over the batch's compliance records:
// true iff at least one record has status Passed and none has status Failed.
// Pending, RequiresAttention and UnderReview records neither satisfy nor
// block compliance.
func (l *Ledger) IsBatchCompliant(batchID string) (bool, error) {
	records, err := l.ComplianceRecordsForBatch(batchID)
	if err != nil {
		return false, err
	}
	anyPassed := false
	for _, record := range records {
		switch record.Status {
		case model.CompliancePassed:
			anyPassed = true
		case model.ComplianceFailed:
			return false, nil
		}
	}
	return anyPassed, nil
}
