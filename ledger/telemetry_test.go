package ledger

import (
	"testing"
	"time"

	"pharmatrace/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sensorID = "x509::CN=sensor1"

func newTelemetryLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	l, _ := newTestLedger(t, opts...)
	addParticipant(t, l, producerID, "producer1", model.RoleProducer)
	require.NoError(t, l.GrantRole(adminID, sensorID, model.RoleSensor, t0))
	require.NoError(t, l.GrantRole(adminID, regulatorID, model.RoleRegulator, t0))
	return l
}

func TestRecordTelemetry(t *testing.T) {
	l := newTelemetryLedger(t)
	createTestBatch(t, l, producerID, "B1")

	reading, err := l.RecordTelemetry(sensorID, "B1", 5.2, 40, "Cold store A", t0.Add(-time.Minute), t0)
	require.NoError(t, err)
	assert.True(t, reading.Valid, "5.2C / 40%% is inside the default window")
	assert.Equal(t, sensorID, reading.RecordedBy)

	reading, err = l.RecordTelemetry(sensorID, "B1", 12.0, 40, "Truck 9", t0.Add(-time.Minute), t0)
	require.NoError(t, err)
	assert.False(t, reading.Valid, "12C breaches the default max temperature")

	reading, err = l.RecordTelemetry(sensorID, "B1", 5.0, 80, "Truck 9", t0.Add(-time.Minute), t0)
	require.NoError(t, err)
	assert.False(t, reading.Valid, "80%% breaches the default max humidity")

	history, err := l.TelemetryHistory("B1")
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestRecordTelemetryGuards(t *testing.T) {
	l := newTelemetryLedger(t)
	createTestBatch(t, l, producerID, "B1")
	ts := t0.Add(-time.Minute)

	_, err := l.RecordTelemetry(producerID, "B1", 5, 40, "A", ts, t0)
	requireKind(t, err, KindUnauthorized)

	_, err = l.RecordTelemetry(sensorID, "NOPE", 5, 40, "A", ts, t0)
	requireKind(t, err, KindNotFound)

	_, err = l.RecordTelemetry(sensorID, "B1", 5, 40, "", ts, t0)
	requireKind(t, err, KindBadInput)

	_, err = l.RecordTelemetry(sensorID, "B1", 5, 101, "A", ts, t0)
	requireKind(t, err, KindBadInput)

	_, err = l.RecordTelemetry(sensorID, "B1", 5, -1, "A", ts, t0)
	requireKind(t, err, KindBadInput)
}

func TestRecordTelemetryStaleness(t *testing.T) {
	l := newTelemetryLedger(t, WithStalenessWindow(time.Hour))
	createTestBatch(t, l, producerID, "B1")

	// A future reading is never acceptable.
	_, err := l.RecordTelemetry(sensorID, "B1", 5, 40, "A", t0.Add(time.Second), t0)
	requireKind(t, err, KindStaleData)

	// Outside the window.
	_, err = l.RecordTelemetry(sensorID, "B1", 5, 40, "A", t0.Add(-2*time.Hour), t0)
	requireKind(t, err, KindStaleData)

	// On the edge of the window.
	_, err = l.RecordTelemetry(sensorID, "B1", 5, 40, "A", t0.Add(-time.Hour), t0)
	require.NoError(t, err)
}

func TestRecordTelemetryBoundSensor(t *testing.T) {
	l := newTelemetryLedger(t)
	const otherSensor = "x509::CN=sensor2"
	require.NoError(t, l.GrantRole(adminID, otherSensor, model.RoleSensor, t0))

	_, err := l.CreateBatch(producerID, "B1", "Drug", 10,
		t0.AddDate(0, -1, 0), t0.AddDate(2, 0, 0), "", sensorID, t0)
	require.NoError(t, err)

	// The bound device records; any other sensor is rejected.
	_, err = l.RecordTelemetry(sensorID, "B1", 5, 40, "A", t0.Add(-time.Minute), t0)
	require.NoError(t, err)
	_, err = l.RecordTelemetry(otherSensor, "B1", 5, 40, "A", t0.Add(-time.Minute), t0)
	requireKind(t, err, KindUnauthorized)

	// An unbound batch accepts any sensor.
	createTestBatch(t, l, producerID, "B2")
	_, err = l.RecordTelemetry(otherSensor, "B2", 5, 40, "A", t0.Add(-time.Minute), t0)
	require.NoError(t, err)
}

func TestSetTelemetryBounds(t *testing.T) {
	l := newTelemetryLedger(t)

	bounds, err := l.TelemetryBounds()
	require.NoError(t, err)
	assert.Equal(t, 2.0, bounds.MinTemp)
	assert.Equal(t, 8.0, bounds.MaxTemp)
	assert.Equal(t, 65.0, bounds.MaxHumidity)

	requireKind(t, l.SetTelemetryBounds(sensorID, -20, 0, 50, t0), KindUnauthorized)
	requireKind(t, l.SetTelemetryBounds(regulatorID, 8, 2, 50, t0), KindBadInput)
	requireKind(t, l.SetTelemetryBounds(regulatorID, 2, 8, 0, t0), KindBadInput)
	requireKind(t, l.SetTelemetryBounds(regulatorID, 2, 8, 101, t0), KindBadInput)

	require.NoError(t, l.SetTelemetryBounds(regulatorID, -25, -15, 50, t0))
	bounds, err = l.TelemetryBounds()
	require.NoError(t, err)
	assert.Equal(t, -25.0, bounds.MinTemp)
	assert.Equal(t, regulatorID, bounds.UpdatedBy)
}

// TestTelemetryVerdictImmutable pins the rule that a stored reading keeps the
// verdict computed at ingestion even after the bounds change.
func TestTelemetryVerdictImmutable(t *testing.T) {
	l := newTelemetryLedger(t)
	createTestBatch(t, l, producerID, "B1")

	reading, err := l.RecordTelemetry(sensorID, "B1", 5, 40, "A", t0.Add(-time.Minute), t0)
	require.NoError(t, err)
	require.True(t, reading.Valid)

	// Tighten the window so 5C would now be out of range.
	require.NoError(t, l.SetTelemetryBounds(regulatorID, -25, -15, 50, t0))

	stored, err := l.TelemetryAt("B1", 0)
	require.NoError(t, err)
	assert.True(t, stored.Valid, "stored verdicts are never recomputed")

	// New readings are judged against the new bounds.
	reading, err = l.RecordTelemetry(sensorID, "B1", 5, 40, "A", t0.Add(-time.Minute), t0)
	require.NoError(t, err)
	assert.False(t, reading.Valid)
}

func TestTelemetryQueries(t *testing.T) {
	l := newTelemetryLedger(t)
	createTestBatch(t, l, producerID, "B1")

	_, err := l.TelemetryHistory("NOPE")
	requireKind(t, err, KindNotFound)

	_, err = l.LatestTelemetry("B1")
	requireKind(t, err, KindNotFound)

	_, err = l.RecordTelemetry(sensorID, "B1", 3, 40, "A", t0.Add(-2*time.Minute), t0)
	require.NoError(t, err)
	_, err = l.RecordTelemetry(sensorID, "B1", 4, 40, "B", t0.Add(-time.Minute), t0)
	require.NoError(t, err)

	latest, err := l.LatestTelemetry("B1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, latest.Temperature)

	first, err := l.TelemetryAt("B1", 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, first.Temperature)

	_, err = l.TelemetryAt("B1", 2)
	requireKind(t, err, KindOutOfBounds)
	_, err = l.TelemetryAt("B1", -1)
	requireKind(t, err, KindOutOfBounds)
}
