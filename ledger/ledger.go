package ledger

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"pharmatrace/model"
)

// Constants for input validation and limits.
const (
	maxStringInputLength = 256
	maxNotesLength       = 1024
	maxEvidenceRefs      = 50

	defaultStalenessWindow = 24 * time.Hour

	minVotingPeriod = time.Minute
	maxVotingPeriod = 30 * 24 * time.Hour

	lockStripes = 64
)

// EventSink receives every committed event, after it has been persisted.
// Implementations must not block; the in-process ledger calls it while holding
// the entity lock.
type EventSink interface {
	Emit(model.Event)
}

// Ledger is the deterministic command processor over the shared state. Every
// command takes the fully-resolved caller identity and an explicit "now";
// nothing here reads a global clock or performs I/O beyond its Store.
//
// Commands against the same entity are serialized by a striped mutex so that
// of two conflicting commands exactly one succeeds and the other observes the
// post-state and fails its precondition. Commands against independent
// entities proceed in parallel; queries take no exclusive lock.
type Ledger struct {
	store     Store
	sink      EventSink
	staleness time.Duration

	locks [lockStripes]sync.Mutex
	evMu  sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithEventSink forwards committed events to sink in addition to persisting
// them.
func WithEventSink(sink EventSink) Option {
	return func(l *Ledger) { l.sink = sink }
}

// WithStalenessWindow overrides the telemetry acceptance window (default 24h).
func WithStalenessWindow(window time.Duration) Option {
	return func(l *Ledger) { l.staleness = window }
}

// New creates a Ledger over the given store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, staleness: defaultStalenessWindow}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// lockEntity serializes commands touching the given entity key. The returned
// func releases the lock.
func (l *Ledger) lockEntity(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &l.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// --- State access helpers ---

// getJSON reads and unmarshals one object. found is false when the key is
// absent; unmarshalable state is a KindCorrupt error.
func (l *Ledger) getJSON(op, key string, out interface{}) (found bool, err error) {
	raw, err := l.store.Get(key)
	if err != nil {
		return false, wrapf(KindCorrupt, op, err, "failed to read state '%s'", key)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, wrapf(KindCorrupt, op, err, "failed to unmarshal state '%s'", key)
	}
	return true, nil
}

// putJSON marshals and writes one object.
func (l *Ledger) putJSON(op, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return wrapf(KindCorrupt, op, err, "failed to marshal state '%s'", key)
	}
	if err := l.store.Put(key, raw); err != nil {
		return wrapf(KindCorrupt, op, err, "failed to save state '%s'", key)
	}
	return nil
}

// --- Authorization helpers ---

// requireRole checks that the caller holds at least one of the given roles.
// Admins pass every role check.
func (l *Ledger) requireRole(op, caller string, roles ...model.Role) error {
	rec, err := l.accessRecord(op, caller)
	if err != nil {
		return err
	}
	if rec.HasRole(model.RoleAdmin) || rec.HasAnyRole(roles...) {
		return nil
	}
	return errf(KindUnauthorized, op, "identity '%s' does not hold any of the required roles %v", caller, roles)
}

// requireActiveStakeholder checks that the identity is registered, active and
// KYC-complete.
func (l *Ledger) requireActiveStakeholder(op, identity string) (*model.StakeholderRecord, error) {
	rec, found, err := l.stakeholderRecord(op, identity)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errf(KindBadInput, op, "identity '%s' is not a registered stakeholder", identity)
	}
	if !rec.Active {
		return nil, errf(KindBadInput, op, "stakeholder '%s' is deactivated", identity)
	}
	if !rec.KYCCompleted {
		return nil, errf(KindBadInput, op, "stakeholder '%s' has not completed KYC", identity)
	}
	return rec, nil
}

// --- Validation helpers ---

func requiredString(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errf(KindBadInput, op, "%s cannot be empty", field)
	}
	if len(value) > maxStringInputLength {
		return errf(KindBadInput, op, "%s exceeds max length %d", field, maxStringInputLength)
	}
	return nil
}

func optionalString(op, field, value string, max int) error {
	if value != "" && len(value) > max {
		return errf(KindBadInput, op, "%s exceeds max length %d", field, max)
	}
	return nil
}

func validateEvidenceRefs(op string, refs []string) error {
	if len(refs) > maxEvidenceRefs {
		return errf(KindBadInput, op, "evidenceRefs has %d items, exceeding maximum of %d", len(refs), maxEvidenceRefs)
	}
	for i, ref := range refs {
		if err := optionalString(op, fmt.Sprintf("evidenceRefs[%d]", i), ref, maxStringInputLength); err != nil {
			return err
		}
	}
	return nil
}
