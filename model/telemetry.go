package model

import "time"

// TelemetryReading is one sensor sample for a batch. Readings are append-only;
// the Valid flag is computed once at ingestion against the bounds in force at
// that moment and is never recomputed.
type TelemetryReading struct {
	BatchID     string    `json:"batchId"`
	Temperature float64   `json:"temperature"` // Degrees Celsius
	Humidity    float64   `json:"humidity"`    // Percent relative humidity
	Location    string    `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
	RecordedBy  string    `json:"recordedBy"`
	Valid       bool      `json:"valid"`
}

// TelemetryBounds holds the acceptance window readings are validated against.
type TelemetryBounds struct {
	ObjectType  string    `json:"objectType"` // "TelemetryBounds"
	MinTemp     float64   `json:"minTemp"`
	MaxTemp     float64   `json:"maxTemp"`
	MaxHumidity float64   `json:"maxHumidity"`
	UpdatedBy   string    `json:"updatedBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
