package ledger

import (
	"encoding/json"
	"time"

	"pharmatrace/model"

	"github.com/hyperledger/fabric/common/flogging"
)

var accessLogger = flogging.MustGetLogger("pharmatrace.access")

// accessRecord loads the role set for one identity. An unknown identity is a
// valid record with no roles.
func (l *Ledger) accessRecord(op, identity string) (*model.AccessRecord, error) {
	var rec model.AccessRecord
	found, err := l.getJSON(op, accessKey(identity), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.AccessRecord{ObjectType: accessObjectType, Identity: identity, Roles: []model.Role{}}, nil
	}
	if rec.Roles == nil {
		rec.Roles = []model.Role{}
	}
	return &rec, nil
}

// Bootstrap grants the admin role to the caller iff no admin exists yet. It is
// the one self-authorizing command; afterwards every grant goes through an
// existing admin.
func (l *Ledger) Bootstrap(caller string, now time.Time) error {
	const op = "Bootstrap"
	if err := requiredString(op, "caller", caller); err != nil {
		return err
	}
	release := l.lockEntity(accessObjectType)
	defer release()

	kvs, err := l.store.List(accessObjectType + keySep)
	if err != nil {
		return wrapf(KindCorrupt, op, err, "failed to scan access records")
	}
	for _, kv := range kvs {
		rec, err := l.accessRecordFromKV(op, kv)
		if err != nil {
			return err
		}
		if rec.HasRole(model.RoleAdmin) {
			return errf(KindAlreadyExists, op, "system already has an admin; Bootstrap must not be re-run")
		}
	}

	rec := &model.AccessRecord{
		ObjectType:    accessObjectType,
		Identity:      caller,
		Roles:         []model.Role{model.RoleAdmin},
		GrantedBy:     caller,
		LastUpdatedAt: now,
	}
	if err := l.putJSON(op, accessKey(caller), rec); err != nil {
		return err
	}
	accessLogger.Infof("Bootstrap: identity '%s' is now the initial admin", caller)
	return l.appendEvent(op, model.EventAccessGranted, caller, caller, now,
		map[string]interface{}{"role": model.RoleAdmin, "bootstrap": true})
}

// GrantRole grants a role to an identity. Admin-only; granting an
// already-granted role is a no-op, not an error.
func (l *Ledger) GrantRole(caller, identity string, role model.Role, now time.Time) error {
	const op = "GrantRole"
	if err := requiredString(op, "identity", identity); err != nil {
		return err
	}
	if !model.ValidRoles[role] {
		return errf(KindBadInput, op, "invalid role '%s'", role)
	}
	if err := l.requireRole(op, caller, model.RoleAdmin); err != nil {
		return err
	}

	release := l.lockEntity(accessKey(identity))
	defer release()

	rec, err := l.accessRecord(op, identity)
	if err != nil {
		return err
	}
	if rec.HasRole(role) {
		accessLogger.Debugf("GrantRole: role '%s' already granted to '%s', no action", role, identity)
		return nil
	}
	rec.Roles = append(rec.Roles, role)
	rec.GrantedBy = caller
	rec.LastUpdatedAt = now
	if err := l.putJSON(op, accessKey(identity), rec); err != nil {
		return err
	}
	accessLogger.Infof("GrantRole: role '%s' granted to '%s' by '%s'", role, identity, caller)
	return l.appendEvent(op, model.EventAccessGranted, identity, caller, now,
		map[string]interface{}{"role": role})
}

// RevokeRole removes a role from an identity. Admin-only; revoking a role the
// identity does not hold is a no-op.
func (l *Ledger) RevokeRole(caller, identity string, role model.Role, now time.Time) error {
	const op = "RevokeRole"
	if err := requiredString(op, "identity", identity); err != nil {
		return err
	}
	if err := l.requireRole(op, caller, model.RoleAdmin); err != nil {
		return err
	}

	release := l.lockEntity(accessKey(identity))
	defer release()

	rec, err := l.accessRecord(op, identity)
	if err != nil {
		return err
	}
	kept := []model.Role{}
	removed := false
	for _, held := range rec.Roles {
		if held == role {
			removed = true
			continue
		}
		kept = append(kept, held)
	}
	if !removed {
		accessLogger.Debugf("RevokeRole: role '%s' not held by '%s', no action", role, identity)
		return nil
	}
	rec.Roles = kept
	rec.GrantedBy = caller
	rec.LastUpdatedAt = now
	if err := l.putJSON(op, accessKey(identity), rec); err != nil {
		return err
	}
	accessLogger.Infof("RevokeRole: role '%s' revoked from '%s' by '%s'", role, identity, caller)
	return l.appendEvent(op, model.EventAccessRevoked, identity, caller, now,
		map[string]interface{}{"role": role})
}

// HasRole reports whether the identity currently holds the role.
func (l *Ledger) HasRole(identity string, role model.Role) (bool, error) {
	rec, err := l.accessRecord("HasRole", identity)
	if err != nil {
		return false, err
	}
	return rec.HasRole(role), nil
}

// HasAnyRole reports whether the identity holds at least one of the roles.
func (l *Ledger) HasAnyRole(identity string, roles ...model.Role) (bool, error) {
	rec, err := l.accessRecord("HasAnyRole", identity)
	if err != nil {
		return false, err
	}
	return rec.HasAnyRole(roles...), nil
}

// RolesOf returns the roles currently granted to the identity.
func (l *Ledger) RolesOf(identity string) ([]model.Role, error) {
	rec, err := l.accessRecord("RolesOf", identity)
	if err != nil {
		return nil, err
	}
	return rec.Roles, nil
}

func (l *Ledger) accessRecordFromKV(op string, kv KV) (*model.AccessRecord, error) {
	var rec model.AccessRecord
	if err := json.Unmarshal(kv.Value, &rec); err != nil {
		return nil, wrapf(KindCorrupt, op, err, "failed to unmarshal access record '%s'", kv.Key)
	}
	return &rec, nil
}
