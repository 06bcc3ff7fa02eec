package ledger

import (
	"encoding/json"
	"time"

	"pharmatrace/model"

	"github.com/hyperledger/fabric/common/flogging"
)

var stakeholderLogger = flogging.MustGetLogger("pharmatrace.stakeholders")

func (l *Ledger) stakeholderRecord(op, identity string) (*model.StakeholderRecord, bool, error) {
	var rec model.StakeholderRecord
	found, err := l.getJSON(op, stakeholderKey(identity), &rec)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &rec, true, nil
}

// RegisterStakeholder creates the organizational record for an identity. New
// stakeholders start active with KYC incomplete.
func (l *Ledger) RegisterStakeholder(caller, identity, name string, role model.Role, now time.Time) error {
	const op = "RegisterStakeholder"
	if err := requiredString(op, "identity", identity); err != nil {
		return err
	}
	if err := requiredString(op, "name", name); err != nil {
		return err
	}
	if !model.ValidRoles[role] {
		return errf(KindBadInput, op, "invalid role '%s'", role)
	}
	if err := l.requireRole(op, caller, model.RoleRegistrar); err != nil {
		return err
	}

	release := l.lockEntity(stakeholderKey(identity))
	defer release()

	if _, found, err := l.stakeholderRecord(op, identity); err != nil {
		return err
	} else if found {
		return errf(KindAlreadyRegistered, op, "stakeholder '%s' is already registered", identity)
	}

	rec := &model.StakeholderRecord{
		ObjectType:    stakeholderObjectType,
		Identity:      identity,
		Name:          name,
		Role:          role,
		Active:        true,
		RegisteredBy:  caller,
		RegisteredAt:  now,
		LastUpdatedAt: now,
	}
	if err := l.putJSON(op, stakeholderKey(identity), rec); err != nil {
		return err
	}
	stakeholderLogger.Infof("RegisterStakeholder: '%s' (%s, role %s) registered by '%s'", identity, name, role, caller)
	return l.appendEvent(op, model.EventStakeholderRegistered, identity, caller, now,
		map[string]interface{}{"name": name, "role": role})
}

// SetKYC updates the KYC completion flag and verification reference.
func (l *Ledger) SetKYC(caller, identity string, completed bool, reference string, now time.Time) error {
	const op = "SetKYC"
	if err := requiredString(op, "identity", identity); err != nil {
		return err
	}
	if err := optionalString(op, "reference", reference, maxStringInputLength); err != nil {
		return err
	}
	if err := l.requireRole(op, caller, model.RoleRegistrar); err != nil {
		return err
	}

	release := l.lockEntity(stakeholderKey(identity))
	defer release()

	rec, found, err := l.stakeholderRecord(op, identity)
	if err != nil {
		return err
	}
	if !found {
		return errf(KindNotFound, op, "stakeholder '%s' is not registered", identity)
	}
	rec.KYCCompleted = completed
	rec.KYCReference = reference
	rec.LastUpdatedAt = now
	if err := l.putJSON(op, stakeholderKey(identity), rec); err != nil {
		return err
	}
	stakeholderLogger.Infof("SetKYC: '%s' kycCompleted=%v by '%s'", identity, completed, caller)
	return l.appendEvent(op, model.EventStakeholderKYCUpdated, identity, caller, now,
		map[string]interface{}{"completed": completed, "reference": reference})
}

// SetActive activates or deactivates a stakeholder. Records are never
// deleted; deactivation is the terminal form of removal.
func (l *Ledger) SetActive(caller, identity string, active bool, now time.Time) error {
	const op = "SetActive"
	if err := requiredString(op, "identity", identity); err != nil {
		return err
	}
	if err := l.requireRole(op, caller, model.RoleRegistrar); err != nil {
		return err
	}

	release := l.lockEntity(stakeholderKey(identity))
	defer release()

	rec, found, err := l.stakeholderRecord(op, identity)
	if err != nil {
		return err
	}
	if !found {
		return errf(KindNotFound, op, "stakeholder '%s' is not registered", identity)
	}
	rec.Active = active
	rec.LastUpdatedAt = now
	if err := l.putJSON(op, stakeholderKey(identity), rec); err != nil {
		return err
	}
	stakeholderLogger.Infof("SetActive: '%s' active=%v by '%s'", identity, active, caller)
	return l.appendEvent(op, model.EventStakeholderActiveSet, identity, caller, now,
		map[string]interface{}{"active": active})
}

// GetStakeholder returns the full record, never a partial or default one.
func (l *Ledger) GetStakeholder(identity string) (*model.StakeholderRecord, error) {
	const op = "GetStakeholder"
	rec, found, err := l.stakeholderRecord(op, identity)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errf(KindNotFound, op, "stakeholder '%s' is not registered", identity)
	}
	return rec, nil
}

// ListStakeholdersByRole returns all records whose primary role label matches.
func (l *Ledger) ListStakeholdersByRole(role model.Role) ([]model.StakeholderRecord, error) {
	const op = "ListStakeholdersByRole"
	kvs, err := l.store.List(stakeholderObjectType + keySep)
	if err != nil {
		return nil, wrapf(KindCorrupt, op, err, "failed to scan stakeholders")
	}
	records := []model.StakeholderRecord{}
	for _, kv := range kvs {
		var rec model.StakeholderRecord
		if err := json.Unmarshal(kv.Value, &rec); err != nil {
			return nil, wrapf(KindCorrupt, op, err, "failed to unmarshal stakeholder '%s'", kv.Key)
		}
		if rec.Role == role {
			records = append(records, rec)
		}
	}
	return records, nil
}
