package ledger

import (
	"sync"
	"testing"
	"time"

	"pharmatrace/model"

	"github.com/stretchr/testify/require"
)

const (
	adminID     = "x509::CN=admin::OU=org1"
	registrarID = "x509::CN=registrar::OU=org1"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// collectSink records every emitted event for assertions.
type collectSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (s *collectSink) Emit(event model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectSink) all() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

// newTestLedger builds a MemStore-backed ledger with a bootstrapped admin and
// a registrar.
func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *collectSink) {
	t.Helper()
	sink := &collectSink{}
	l := New(NewMemStore(), append([]Option{WithEventSink(sink)}, opts...)...)
	require.NoError(t, l.Bootstrap(adminID, t0))
	require.NoError(t, l.GrantRole(adminID, registrarID, model.RoleRegistrar, t0))
	return l, sink
}

// addParticipant grants the role and registers the identity as an active,
// KYC-complete stakeholder.
func addParticipant(t *testing.T, l *Ledger, identity, name string, role model.Role) {
	t.Helper()
	require.NoError(t, l.GrantRole(adminID, identity, role, t0))
	require.NoError(t, l.RegisterStakeholder(registrarID, identity, name, role, t0))
	require.NoError(t, l.SetKYC(registrarID, identity, true, "kyc-ref-"+name, t0))
}

// createTestBatch sets up a producer and returns a fresh batch in Produced.
func createTestBatch(t *testing.T, l *Ledger, producer, batchID string) *model.Batch {
	t.Helper()
	batch, err := l.CreateBatch(producer, batchID, "Amoxicillin 500mg", 1000,
		t0.AddDate(0, -1, 0), t0.AddDate(2, 0, 0), "", "", t0)
	require.NoError(t, err)
	return batch
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error kind for: %v", err)
}
