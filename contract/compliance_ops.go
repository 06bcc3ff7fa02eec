package contract

import (
	"pharmatrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Compliance & Audit Operations ---

// AddComplianceCheck opens a compliance record for a batch in PENDING status.
// evidenceRefsJSON is an optional JSON array of document references.
func (s *PharmatraceSmartContract) AddComplianceCheck(ctx contractapi.TransactionContextInterface,
	batchID, checkType, notes, findings, correctiveActions, evidenceRefsJSON string) (*model.ComplianceRecord, error) {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Chaincode Call: AddComplianceCheck '%s' for batch '%s' by '%s'", checkType, batchID, caller)

	evidenceRefs, err := parseEvidenceRefs(evidenceRefsJSON)
	if err != nil {
		return nil, err
	}
	return ledgerFor(ctx).AddComplianceCheck(caller, batchID, checkType, notes, findings, correctiveActions, evidenceRefs, now)
}

// UpdateComplianceStatus moves a compliance record to a new status verdict.
func (s *PharmatraceSmartContract) UpdateComplianceStatus(ctx contractapi.TransactionContextInterface,
	recordID, newStatus string, passed bool, notes string) error {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: UpdateComplianceStatus record '%s' -> '%s' by '%s'", recordID, newStatus, caller)
	return ledgerFor(ctx).UpdateComplianceStatus(caller, recordID, model.ComplianceStatus(newStatus), passed, notes, now)
}

// RecordAuditEntry appends an immutable audit entry to a batch's trail.
func (s *PharmatraceSmartContract) RecordAuditEntry(ctx contractapi.TransactionContextInterface,
	batchID, auditType, findings, recommendations, result, evidenceRefsJSON string) (*model.AuditEntry, error) {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Chaincode Call: RecordAuditEntry '%s' for batch '%s' by '%s'", auditType, batchID, caller)

	evidenceRefs, err := parseEvidenceRefs(evidenceRefsJSON)
	if err != nil {
		return nil, err
	}
	return ledgerFor(ctx).RecordAuditEntry(caller, batchID, auditType, findings, recommendations, result, evidenceRefs, now)
}

func (s *PharmatraceSmartContract) GetComplianceRecord(ctx contractapi.TransactionContextInterface, recordID string) (*model.ComplianceRecord, error) {
	logger.Debugf("Chaincode Call: GetComplianceRecord '%s'", recordID)
	return ledgerFor(ctx).GetComplianceRecord(recordID)
}

func (s *PharmatraceSmartContract) GetComplianceRecordsForBatch(ctx contractapi.TransactionContextInterface, batchID string) ([]model.ComplianceRecord, error) {
	logger.Debugf("Chaincode Call: GetComplianceRecordsForBatch '%s'", batchID)
	return ledgerFor(ctx).ComplianceRecordsForBatch(batchID)
}

func (s *PharmatraceSmartContract) GetAuditTrailForBatch(ctx contractapi.TransactionContextInterface, batchID string) ([]model.AuditEntry, error) {
	logger.Debugf("Chaincode Call: GetAuditTrailForBatch '%s'", batchID)
	return ledgerFor(ctx).AuditTrailForBatch(batchID)
}

// IsBatchCompliant reports the aggregate verdict: at least one PASSED record
// and no FAILED records.
func (s *PharmatraceSmartContract) IsBatchCompliant(ctx contractapi.TransactionContextInterface, batchID string) (bool, error) {
	logger.Debugf("Chaincode Call: IsBatchCompliant '%s'", batchID)
	return ledgerFor(ctx).IsBatchCompliant(batchID)
}
