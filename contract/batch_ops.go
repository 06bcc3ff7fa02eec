package contract

import (
	"pharmatrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Batch Lifecycle Operations ---

// CreateBatch registers a new pharmaceutical batch. Date arguments are
// RFC3339 strings; custodian defaults to the invoker when empty.
func (s *PharmatraceSmartContract) CreateBatch(ctx contractapi.TransactionContextInterface,
	batchID, productName string, quantity float64,
	manufactureDateStr, expiryDateStr, custodian, sensorID string) (*model.Batch, error) {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Chaincode Call: CreateBatch '%s' ('%s') by '%s'", batchID, productName, caller)

	manufactureDate, err := parseDateString(manufactureDateStr, "manufactureDate", true)
	if err != nil {
		return nil, err
	}
	expiryDate, err := parseDateString(expiryDateStr, "expiryDate", true)
	if err != nil {
		return nil, err
	}
	return ledgerFor(ctx).CreateBatch(caller, batchID, productName, quantity,
		manufactureDate, expiryDate, custodian, sensorID, now)
}

// UpdateBatchStatus moves a batch along the lifecycle graph. The reason is
// required for RECALLED and recorded in batch history for every transition.
func (s *PharmatraceSmartContract) UpdateBatchStatus(ctx contractapi.TransactionContextInterface,
	batchID, newStatus, reason string) error {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: UpdateBatchStatus '%s' -> '%s' by '%s'", batchID, newStatus, caller)
	return ledgerFor(ctx).UpdateBatchStatus(caller, batchID, model.BatchStatus(newStatus), reason, now)
}

// TransferCustody hands a batch from the current custodian to another
// registered stakeholder. Only the current custodian may invoke it.
func (s *PharmatraceSmartContract) TransferCustody(ctx contractapi.TransactionContextInterface,
	batchID, newCustodian, reason, location string) error {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: TransferCustody '%s' -> '%s' by '%s'", batchID, newCustodian, caller)
	return ledgerFor(ctx).TransferCustody(caller, batchID, newCustodian, reason, location, now)
}
