package contract

import (
	"pharmatrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("pharmatrace.contract")

// PharmatraceSmartContract provides functions for managing pharmaceutical
// batches, custody, telemetry, compliance records, and owner governance.
// @contract:PharmatraceSmartContract
type PharmatraceSmartContract struct {
	contractapi.Contract
}

// Instantiate is called during chaincode instantiation.
// It's a lifecycle method of the contract.
func (s *PharmatraceSmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("PharmatraceSmartContract Instantiated/Upgraded")
}

// --- Access Control Wrappers ---

// BootstrapAdmin makes the invoker the first admin. Fails once any admin exists.
func (s *PharmatraceSmartContract) BootstrapAdmin(ctx contractapi.TransactionContextInterface) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: BootstrapAdmin by '%s'", caller)
	return ledgerFor(ctx).Bootstrap(caller, now)
}

func (s *PharmatraceSmartContract) GrantRole(ctx contractapi.TransactionContextInterface, identity, role string) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: GrantRole '%s' to '%s'", role, identity)
	return ledgerFor(ctx).GrantRole(caller, identity, model.Role(role), now)
}

func (s *PharmatraceSmartContract) RevokeRole(ctx contractapi.TransactionContextInterface, identity, role string) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: RevokeRole '%s' from '%s'", role, identity)
	return ledgerFor(ctx).RevokeRole(caller, identity, model.Role(role), now)
}

func (s *PharmatraceSmartContract) HasRole(ctx contractapi.TransactionContextInterface, identity, role string) (bool, error) {
	logger.Debugf("Chaincode Call: HasRole '%s' for '%s'", role, identity)
	return ledgerFor(ctx).HasRole(identity, model.Role(role))
}

func (s *PharmatraceSmartContract) GetRoles(ctx contractapi.TransactionContextInterface, identity string) ([]string, error) {
	logger.Debugf("Chaincode Call: GetRoles for '%s'", identity)
	roles, err := ledgerFor(ctx).RolesOf(identity)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out, nil
}

// --- Stakeholder Wrappers ---

func (s *PharmatraceSmartContract) RegisterStakeholder(ctx contractapi.TransactionContextInterface, identity, name, role string) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: RegisterStakeholder '%s' ('%s') as '%s'", identity, name, role)
	return ledgerFor(ctx).RegisterStakeholder(caller, identity, name, model.Role(role), now)
}

func (s *PharmatraceSmartContract) SetStakeholderKYC(ctx contractapi.TransactionContextInterface, identity string, completed bool, reference string) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: SetStakeholderKYC for '%s' (completed=%t)", identity, completed)
	return ledgerFor(ctx).SetKYC(caller, identity, completed, reference, now)
}

func (s *PharmatraceSmartContract) SetStakeholderActive(ctx contractapi.TransactionContextInterface, identity string, active bool) error {
	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: SetStakeholderActive for '%s' (active=%t)", identity, active)
	return ledgerFor(ctx).SetActive(caller, identity, active, now)
}

func (s *PharmatraceSmartContract) GetStakeholder(ctx contractapi.TransactionContextInterface, identity string) (*model.StakeholderRecord, error) {
	logger.Debugf("Chaincode Call: GetStakeholder '%s'", identity)
	return ledgerFor(ctx).GetStakeholder(identity)
}

func (s *PharmatraceSmartContract) ListStakeholdersByRole(ctx contractapi.TransactionContextInterface, role string) ([]model.StakeholderRecord, error) {
	logger.Debugf("Chaincode Call: ListStakeholdersByRole '%s'", role)
	return ledgerFor(ctx).ListStakeholdersByRole(model.Role(role))
}
