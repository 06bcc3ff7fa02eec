package contract

import (
	"pharmatrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Batch & Event Queries ---

func (s *PharmatraceSmartContract) GetBatch(ctx contractapi.TransactionContextInterface, batchID string) (*model.Batch, error) {
	logger.Debugf("Chaincode Call: GetBatch '%s'", batchID)
	return ledgerFor(ctx).GetBatch(batchID)
}

func (s *PharmatraceSmartContract) GetBatchHistory(ctx contractapi.TransactionContextInterface, batchID string) ([]model.BatchHistoryEntry, error) {
	logger.Debugf("Chaincode Call: GetBatchHistory '%s'", batchID)
	return ledgerFor(ctx).BatchHistory(batchID)
}

func (s *PharmatraceSmartContract) ListBatchesByStatus(ctx contractapi.TransactionContextInterface, status string) ([]*model.Batch, error) {
	logger.Debugf("Chaincode Call: ListBatchesByStatus '%s'", status)
	return ledgerFor(ctx).ListBatchesByStatus(model.BatchStatus(status))
}

// GetEventsSince returns the persisted event feed strictly after the given
// sequence number, in order. Pass 0 for the full feed.
func (s *PharmatraceSmartContract) GetEventsSince(ctx contractapi.TransactionContextInterface, after uint64) ([]model.Event, error) {
	logger.Debugf("Chaincode Call: GetEventsSince %d", after)
	return ledgerFor(ctx).EventsSince(after)
}
