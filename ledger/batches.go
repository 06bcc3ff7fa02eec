package ledger

import (
	"encoding/json"
	"strings"
	"time"

	"pharmatrace/model"

	"github.com/hyperledger/fabric/common/flogging"
)

var batchLogger = flogging.MustGetLogger("pharmatrace.batches")

// statusGraph is the fixed, directed status graph. The forward chain mirrors
// the one-way physical flow of a drug batch; Recalled and Expired are the only
// cross-cutting exceptions, and Destroyed follows only those two. Dispensed
// and Destroyed have no outgoing edges.
var statusGraph = map[model.BatchStatus][]model.BatchStatus{
	model.StatusProduced:      {model.StatusInTransit, model.StatusRecalled, model.StatusExpired},
	model.StatusInTransit:     {model.StatusAtDistributor, model.StatusRecalled, model.StatusExpired},
	model.StatusAtDistributor: {model.StatusAtPharmacy, model.StatusRecalled, model.StatusExpired},
	model.StatusAtPharmacy:    {model.StatusDispensed, model.StatusRecalled, model.StatusExpired},
	model.StatusDispensed:     {},
	model.StatusRecalled:      {model.StatusDestroyed},
	model.StatusExpired:       {model.StatusDestroyed},
	model.StatusDestroyed:     {},
}

// statusRoles maps each target status to the roles allowed to drive the
// transition. Admins bypass as everywhere else.
var statusRoles = map[model.BatchStatus][]model.Role{
	model.StatusInTransit:     {model.RoleProducer, model.RoleDistributor, model.RoleRetailer},
	model.StatusAtDistributor: {model.RoleProducer, model.RoleDistributor, model.RoleRetailer},
	model.StatusAtPharmacy:    {model.RoleProducer, model.RoleDistributor, model.RoleRetailer},
	model.StatusDispensed:     {model.RoleProducer, model.RoleDistributor, model.RoleRetailer},
	model.StatusRecalled: {model.RoleProducer, model.RoleDistributor, model.RoleRetailer,
		model.RoleInspector, model.RoleRegulator},
	model.StatusExpired:   {model.RoleRegulator},
	model.StatusDestroyed: {model.RoleRegulator},
}

// custodyStatuses are the statuses in which a batch is still moving through
// the forward flow and may change hands.
var custodyStatuses = map[model.BatchStatus]bool{
	model.StatusProduced:      true,
	model.StatusInTransit:     true,
	model.StatusAtDistributor: true,
	model.StatusAtPharmacy:    true,
}

func transitionAllowed(from, to model.BatchStatus) bool {
	for _, next := range statusGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (l *Ledger) batch(op, id string) (*model.Batch, bool, error) {
	var batch model.Batch
	found, err := l.getJSON(op, batchKey(id), &batch)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	if batch.Producer == "" {
		return nil, false, errf(KindCorrupt, op, "batch '%s' has no producer", id)
	}
	if batch.History == nil {
		batch.History = []model.BatchHistoryEntry{}
	}
	return &batch, true, nil
}

// CreateBatch registers a new batch in status Produced. The caller must hold
// the producer role and be an active, KYC-complete stakeholder. An empty
// custodian defaults to the producer; sensorID optionally binds a telemetry
// device to the batch.
func (l *Ledger) CreateBatch(caller, id, productName string, quantity float64,
	manufactureDate, expiryDate time.Time, custodian, sensorID string, now time.Time) (*model.Batch, error) {

	const op = "CreateBatch"
	if err := requiredString(op, "batchID", id); err != nil {
		return nil, err
	}
	if err := requiredString(op, "productName", productName); err != nil {
		return nil, err
	}
	if err := optionalString(op, "sensorID", sensorID, maxStringInputLength); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, errf(KindBadInput, op, "quantity must be positive, got %v", quantity)
	}
	if !expiryDate.After(manufactureDate) {
		return nil, errf(KindBadInput, op, "expiryDate must be after manufactureDate")
	}
	if !expiryDate.After(now) {
		return nil, errf(KindBadInput, op, "expiryDate must be in the future")
	}
	if err := l.requireRole(op, caller, model.RoleProducer); err != nil {
		return nil, err
	}
	if _, err := l.requireActiveStakeholder(op, caller); err != nil {
		return nil, err
	}

	if custodian == "" {
		custodian = caller
	}
	if custodian != caller {
		if _, err := l.requireCustodyCandidate(op, custodian); err != nil {
			return nil, err
		}
	}

	release := l.lockEntity(batchKey(id))
	defer release()

	if _, found, err := l.batch(op, id); err != nil {
		return nil, err
	} else if found {
		return nil, errf(KindAlreadyExists, op, "batch with ID '%s' already exists", id)
	}

	batch := &model.Batch{
		ObjectType:      batchObjectType,
		ID:              id,
		ProductName:     productName,
		Producer:        caller,
		Quantity:        quantity,
		ManufactureDate: manufactureDate,
		ExpiryDate:      expiryDate,
		Status:          model.StatusProduced,
		Custodian:       custodian,
		SensorID:        sensorID,
		CreatedAt:       now,
		LastUpdatedAt:   now,
		History: []model.BatchHistoryEntry{{
			Timestamp: now,
			Actor:     caller,
			Action:    "CREATED",
			ToStatus:  model.StatusProduced,
		}},
	}
	if err := l.putJSON(op, batchKey(id), batch); err != nil {
		return nil, err
	}
	batchLogger.Infof("CreateBatch: batch '%s' (%s, qty %v) created by producer '%s'", id, productName, quantity, caller)
	if err := l.appendEvent(op, model.EventBatchCreated, id, caller, now, map[string]interface{}{
		"productName": productName,
		"quantity":    quantity,
		"custodian":   custodian,
		"expiryDate":  expiryDate.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	return batch, nil
}

// UpdateBatchStatus moves a batch along the status graph. The target must be
// an outgoing edge of the current status; terminal statuses reject every
// transition attempt. A transition to Recalled records the recall details.
func (l *Ledger) UpdateBatchStatus(caller, id string, newStatus model.BatchStatus, reason string, now time.Time) error {
	const op = "UpdateBatchStatus"
	if err := requiredString(op, "batchID", id); err != nil {
		return err
	}
	if err := optionalString(op, "reason", reason, maxNotesLength); err != nil {
		return err
	}
	if newStatus == model.StatusRecalled && strings.TrimSpace(reason) == "" {
		return errf(KindBadInput, op, "a recall requires a reason")
	}
	roles, known := statusRoles[newStatus]
	if !known {
		if newStatus == model.StatusProduced {
			return errf(KindInvalidTransition, op, "batch '%s': no transition leads back to %s", id, newStatus)
		}
		return errf(KindBadInput, op, "unknown target status '%s'", newStatus)
	}
	if err := l.requireRole(op, caller, roles...); err != nil {
		return err
	}

	release := l.lockEntity(batchKey(id))
	defer release()

	batch, found, err := l.batch(op, id)
	if err != nil {
		return err
	}
	if !found {
		return errf(KindNotFound, op, "batch with ID '%s' does not exist", id)
	}
	if !transitionAllowed(batch.Status, newStatus) {
		return errf(KindInvalidTransition, op, "batch '%s': transition %s -> %s is not permitted", id, batch.Status, newStatus)
	}

	prev := batch.Status
	batch.Status = newStatus
	batch.LastUpdatedAt = now
	if newStatus == model.StatusRecalled {
		batch.Recall = &model.RecallInfo{Reason: reason, RecalledBy: caller, RecalledAt: now}
	}
	batch.History = append(batch.History, model.BatchHistoryEntry{
		Timestamp:  now,
		Actor:      caller,
		Action:     "STATUS_CHANGE",
		FromStatus: prev,
		ToStatus:   newStatus,
		Reason:     reason,
	})
	if err := l.putJSON(op, batchKey(id), batch); err != nil {
		return err
	}
	batchLogger.Infof("UpdateBatchStatus: batch '%s' %s -> %s by '%s'", id, prev, newStatus, caller)
	return l.appendEvent(op, model.EventBatchStatusChanged, id, caller, now, map[string]interface{}{
		"fromStatus": prev,
		"toStatus":   newStatus,
		"reason":     reason,
	})
}

// TransferCustody hands a batch to a new custodian. Only the current
// custodian may transfer, only while the batch is in the forward flow, and
// only to a registered, active identity holding an authorized receiving role.
func (l *Ledger) TransferCustody(caller, id, newCustodian, reason, location string, now time.Time) error {
	const op = "TransferCustody"
	if err := requiredString(op, "batchID", id); err != nil {
		return err
	}
	if err := requiredString(op, "newCustodian", newCustodian); err != nil {
		return err
	}
	if err := optionalString(op, "reason", reason, maxNotesLength); err != nil {
		return err
	}
	if err := optionalString(op, "location", location, maxStringInputLength); err != nil {
		return err
	}
	if _, err := l.requireCustodyCandidate(op, newCustodian); err != nil {
		return err
	}

	release := l.lockEntity(batchKey(id))
	defer release()

	batch, found, err := l.batch(op, id)
	if err != nil {
		return err
	}
	if !found {
		return errf(KindNotFound, op, "batch with ID '%s' does not exist", id)
	}
	if batch.Custodian != caller {
		return errf(KindNotCustodian, op, "identity '%s' is not the current custodian of batch '%s'", caller, id)
	}
	if !custodyStatuses[batch.Status] {
		return errf(KindInvalidTransition, op, "batch '%s' in status %s no longer changes hands", id, batch.Status)
	}

	prev := batch.Custodian
	batch.Custodian = newCustodian
	batch.LastUpdatedAt = now
	batch.History = append(batch.History, model.BatchHistoryEntry{
		Timestamp:     now,
		Actor:         caller,
		Action:        "CUSTODY_TRANSFER",
		PrevCustodian: prev,
		NewCustodian:  newCustodian,
		Reason:        reason,
		Location:      location,
	})
	if err := l.putJSON(op, batchKey(id), batch); err != nil {
		return err
	}
	batchLogger.Infof("TransferCustody: batch '%s' custody %s -> %s at '%s'", id, prev, newCustodian, location)
	return l.appendEvent(op, model.EventCustodyTransferred, id, caller, now, map[string]interface{}{
		"prevCustodian": prev,
		"newCustodian":  newCustodian,
		"reason":        reason,
		"location":      location,
	})
}

// requireCustodyCandidate checks that the identity may receive custody of a
// batch: registered, active, and holding a receiving role (distributor or
// retailer). Producers never receive custody; they only hold it from creation.
func (l *Ledger) requireCustodyCandidate(op, identity string) (*model.StakeholderRecord, error) {
	rec, found, err := l.stakeholderRecord(op, identity)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errf(KindBadInput, op, "custodian '%s' is not a registered stakeholder", identity)
	}
	if !rec.Active {
		return nil, errf(KindBadInput, op, "custodian '%s' is deactivated", identity)
	}
	ok, err := l.HasAnyRole(identity, model.RoleDistributor, model.RoleRetailer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errf(KindBadInput, op, "custodian '%s' lacks an authorized receiving role", identity)
	}
	return rec, nil
}

// GetBatch returns one batch by its external identifier.
func (l *Ledger) GetBatch(id string) (*model.Batch, error) {
	const op = "GetBatch"
	batch, found, err := l.batch(op, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errf(KindNotFound, op, "batch with ID '%s' does not exist", id)
	}
	return batch, nil
}

// BatchHistory returns the ordered state-change history of a batch.
func (l *Ledger) BatchHistory(id string) ([]model.BatchHistoryEntry, error) {
	batch, err := l.GetBatch(id)
	if err != nil {
		return nil, err
	}
	return batch.History, nil
}

// ListBatchesByStatus returns all batches currently in the given status.
func (l *Ledger) ListBatchesByStatus(status model.BatchStatus) ([]*model.Batch, error) {
	const op = "ListBatchesByStatus"
	kvs, err := l.store.List(batchObjectType + keySep)
	if err != nil {
		return nil, wrapf(KindCorrupt, op, err, "failed to scan batches")
	}
	batches := []*model.Batch{}
	for _, kv := range kvs {
		var batch model.Batch
		if err := json.Unmarshal(kv.Value, &batch); err != nil {
			return nil, wrapf(KindCorrupt, op, err, "failed to unmarshal batch '%s'", kv.Key)
		}
		if batch.Status == status {
			b := batch
			batches = append(batches, &b)
		}
	}
	return batches, nil
}
