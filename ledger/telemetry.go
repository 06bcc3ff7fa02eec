package ledger

import (
	"time"

	"pharmatrace/model"

	"github.com/hyperledger/fabric/common/flogging"
)

var telemetryLogger = flogging.MustGetLogger("pharmatrace.telemetry")

// defaultBounds is the cold-chain window in force until a regulator sets one.
var defaultBounds = model.TelemetryBounds{
	ObjectType:  "TelemetryBounds",
	MinTemp:     2,
	MaxTemp:     8,
	MaxHumidity: 65,
}

// TelemetryBounds returns the acceptance window currently in force.
func (l *Ledger) TelemetryBounds() (*model.TelemetryBounds, error) {
	const op = "TelemetryBounds"
	var bounds model.TelemetryBounds
	found, err := l.getJSON(op, boundsKey, &bounds)
	if err != nil {
		return nil, err
	}
	if !found {
		b := defaultBounds
		return &b, nil
	}
	return &bounds, nil
}

// SetTelemetryBounds replaces the acceptance window. Stored readings keep the
// valid flag computed against the bounds in force at their ingestion.
func (l *Ledger) SetTelemetryBounds(caller string, minTemp, maxTemp, maxHumidity float64, now time.Time) error {
	const op = "SetTelemetryBounds"
	if minTemp >= maxTemp {
		return errf(KindBadInput, op, "minTemp (%v) must be below maxTemp (%v)", minTemp, maxTemp)
	}
	if maxHumidity <= 0 || maxHumidity > 100 {
		return errf(KindBadInput, op, "maxHumidity must be within (0, 100], got %v", maxHumidity)
	}
	if err := l.requireRole(op, caller, model.RoleRegulator); err != nil {
		return err
	}

	release := l.lockEntity(boundsKey)
	defer release()

	bounds := &model.TelemetryBounds{
		ObjectType:  "TelemetryBounds",
		MinTemp:     minTemp,
		MaxTemp:     maxTemp,
		MaxHumidity: maxHumidity,
		UpdatedBy:   caller,
		UpdatedAt:   now,
	}
	if err := l.putJSON(op, boundsKey, bounds); err != nil {
		return err
	}
	telemetryLogger.Infof("SetTelemetryBounds: temp [%v, %v], maxHumidity %v%% set by '%s'", minTemp, maxTemp, maxHumidity, caller)
	return l.appendEvent(op, model.EventTelemetryBoundsUpdated, boundsKey, caller, now, map[string]interface{}{
		"minTemp":     minTemp,
		"maxTemp":     maxTemp,
		"maxHumidity": maxHumidity,
	})
}

// RecordTelemetry validates and appends one sensor reading. The valid flag is
// computed here, once, and never recomputed. Readings are accepted for
// recalled and otherwise terminal batches for forensic completeness; this
// component never blocks a status transition by itself.
func (l *Ledger) RecordTelemetry(caller, batchID string, temperature, humidity float64,
	location string, ts, now time.Time) (*model.TelemetryReading, error) {

	const op = "RecordTelemetry"
	if err := requiredString(op, "batchID", batchID); err != nil {
		return nil, err
	}
	if err := requiredString(op, "location", location); err != nil {
		return nil, err
	}
	if humidity < 0 || humidity > 100 {
		return nil, errf(KindBadInput, op, "humidity must be within [0, 100], got %v", humidity)
	}
	if err := l.requireRole(op, caller, model.RoleSensor); err != nil {
		return nil, err
	}
	if ts.After(now) {
		return nil, errf(KindStaleData, op, "reading timestamp %s is in the future", ts.Format(time.RFC3339))
	}
	if now.Sub(ts) > l.staleness {
		return nil, errf(KindStaleData, op, "reading timestamp %s is outside the %s acceptance window",
			ts.Format(time.RFC3339), l.staleness)
	}

	release := l.lockEntity(telemetryKey(batchID))
	defer release()

	batch, found, err := l.batch(op, batchID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errf(KindNotFound, op, "batch with ID '%s' does not exist", batchID)
	}
	// A batch with a bound sensor accepts readings from that device only.
	if batch.SensorID != "" && batch.SensorID != caller {
		return nil, errf(KindUnauthorized, op, "sensor '%s' is not bound to batch '%s'", caller, batchID)
	}

	bounds, err := l.TelemetryBounds()
	if err != nil {
		return nil, err
	}
	reading := model.TelemetryReading{
		BatchID:     batchID,
		Temperature: temperature,
		Humidity:    humidity,
		Location:    location,
		Timestamp:   ts,
		RecordedBy:  caller,
		Valid: temperature >= bounds.MinTemp && temperature <= bounds.MaxTemp &&
			humidity <= bounds.MaxHumidity,
	}

	history, err := l.telemetryHistory(op, batchID)
	if err != nil {
		return nil, err
	}
	history = append(history, reading)
	if err := l.putJSON(op, telemetryKey(batchID), history); err != nil {
		return nil, err
	}
	telemetryLogger.Debugf("RecordTelemetry: batch '%s' temp=%v humidity=%v valid=%v", batchID, temperature, humidity, reading.Valid)
	if err := l.appendEvent(op, model.EventTelemetryRecorded, batchID, caller, now, map[string]interface{}{
		"temperature": temperature,
		"humidity":    humidity,
		"location":    location,
		"valid":       reading.Valid,
	}); err != nil {
		return nil, err
	}
	return &reading, nil
}

func (l *Ledger) telemetryHistory(op, batchID string) ([]model.TelemetryReading, error) {
	history := []model.TelemetryReading{}
	if _, err := l.getJSON(op, telemetryKey(batchID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// TelemetryHistory returns all readings for a batch in insertion order.
func (l *Ledger) TelemetryHistory(batchID string) ([]model.TelemetryReading, error) {
	const op = "TelemetryHistory"
	if _, found, err := l.batch(op, batchID); err != nil {
		return nil, err
	} else if !found {
		return nil, errf(KindNotFound, op, "batch with ID '%s' does not exist", batchID)
	}
	return l.telemetryHistory(op, batchID)
}

// LatestTelemetry returns the most recently ingested reading for a batch.
func (l *Ledger) LatestTelemetry(batchID string) (*model.TelemetryReading, error) {
	const op = "LatestTelemetry"
	history, err := l.TelemetryHistory(batchID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errf(KindNotFound, op, "batch '%s' has no telemetry readings", batchID)
	}
	return &history[len(history)-1], nil
}

// TelemetryAt returns the i-th reading of a batch in insertion order.
func (l *Ledger) TelemetryAt(batchID string, index int) (*model.TelemetryReading, error) {
	const op = "TelemetryAt"
	history, err := l.TelemetryHistory(batchID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(history) {
		return nil, errf(KindOutOfBounds, op, "index %d out of range for batch '%s' with %d readings", index, batchID, len(history))
	}
	return &history[index], nil
}
