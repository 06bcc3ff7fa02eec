package contract

import (
	"time"

	"pharmatrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Governance Operations ---

func (s *PharmatraceSmartContract) AddOwner(ctx contractapi.TransactionContextInterface, owner string) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: AddOwner '%s' by '%s'", owner, caller)
	return ledgerFor(ctx).AddOwner(caller, owner, now)
}

func (s *PharmatraceSmartContract) RemoveOwner(ctx contractapi.TransactionContextInterface, owner string) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: RemoveOwner '%s' by '%s'", owner, caller)
	return ledgerFor(ctx).RemoveOwner(caller, owner, now)
}

func (s *PharmatraceSmartContract) SetQuorum(ctx contractapi.TransactionContextInterface, quorum int) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: SetQuorum %d by '%s'", quorum, caller)
	return ledgerFor(ctx).SetQuorum(caller, quorum, now)
}

// CreateProposal opens a governance proposal with a voting window of
// votingPeriodSeconds from the transaction timestamp.
func (s *PharmatraceSmartContract) CreateProposal(ctx contractapi.TransactionContextInterface,
	description string, votingPeriodSeconds int64) (*model.Proposal, error) {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Chaincode Call: CreateProposal by '%s' (period %ds)", caller, votingPeriodSeconds)
	return ledgerFor(ctx).CreateProposal(caller, description, time.Duration(votingPeriodSeconds)*time.Second, now)
}

func (s *PharmatraceSmartContract) Vote(ctx contractapi.TransactionContextInterface, proposalID string, support bool) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: Vote on '%s' (support=%t) by '%s'", proposalID, support, caller)
	return ledgerFor(ctx).Vote(caller, proposalID, support, now)
}

// ExecuteProposal closes a proposal after its deadline and returns whether it
// passed. The outcome is frozen; repeat executions fail.
func (s *PharmatraceSmartContract) ExecuteProposal(ctx contractapi.TransactionContextInterface, proposalID string) (bool, error) {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return false, err
	}
	logger.Infof("Chaincode Call: ExecuteProposal '%s' by '%s'", proposalID, caller)
	return ledgerFor(ctx).ExecuteProposal(caller, proposalID, now)
}

func (s *PharmatraceSmartContract) GetProposal(ctx contractapi.TransactionContextInterface, proposalID string) (*model.Proposal, error) {
	logger.Debugf("Chaincode Call: GetProposal '%s'", proposalID)
	return ledgerFor(ctx).GetProposal(proposalID)
}

func (s *PharmatraceSmartContract) GetOwners(ctx contractapi.TransactionContextInterface) ([]string, error) {
	logger.Debug("Chaincode Call: GetOwners")
	return ledgerFor(ctx).Owners()
}

func (s *PharmatraceSmartContract) GetQuorum(ctx contractapi.TransactionContextInterface) (int, error) {
	logger.Debug("Chaincode Call: GetQuorum")
	return ledgerFor(ctx).Quorum()
}
