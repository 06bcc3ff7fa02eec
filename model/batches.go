package model

import "time"

// BatchStatus defines the possible states of a pharmaceutical batch.
type BatchStatus string

const (
	StatusProduced      BatchStatus = "PRODUCED"       // Batch registered by producer
	StatusInTransit     BatchStatus = "IN_TRANSIT"     // Batch handed to logistics
	StatusAtDistributor BatchStatus = "AT_DISTRIBUTOR" // Batch received by distributor
	StatusAtPharmacy    BatchStatus = "AT_PHARMACY"    // Batch received by pharmacy/retailer
	StatusDispensed     BatchStatus = "DISPENSED"      // Batch dispensed to patients
	StatusRecalled      BatchStatus = "RECALLED"       // Batch recalled; only destruction remains
	StatusExpired       BatchStatus = "EXPIRED"        // Batch past expiry; only destruction remains
	StatusDestroyed     BatchStatus = "DESTROYED"      // Batch destroyed after recall/expiry
)

// RecallInfo holds information about a batch recall.
type RecallInfo struct {
	Reason     string    `json:"reason"`
	RecalledBy string    `json:"recalledBy"`
	RecalledAt time.Time `json:"recalledAt"`
}

// BatchHistoryEntry records one state change of a batch. Entries are appended
// in order and never edited.
type BatchHistoryEntry struct {
	Timestamp     time.Time   `json:"timestamp"`
	Actor         string      `json:"actor"`
	Action        string      `json:"action"` // e.g. "STATUS_CHANGE", "CUSTODY_TRANSFER"
	FromStatus    BatchStatus `json:"fromStatus,omitempty"`
	ToStatus      BatchStatus `json:"toStatus,omitempty"`
	PrevCustodian string      `json:"prevCustodian,omitempty"`
	NewCustodian  string      `json:"newCustodian,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Location      string      `json:"location,omitempty"`
}

// Batch is the central data structure for tracking a drug batch through the
// supply chain. After creation only Status, Custodian, Recall and History may
// change.
type Batch struct {
	ObjectType      string              `json:"objectType"` // "Batch"
	ID              string              `json:"id"`         // External batch identifier
	ProductName     string              `json:"productName"`
	Producer        string              `json:"producer"` // Identity that created the batch
	Quantity        float64             `json:"quantity"`
	ManufactureDate time.Time           `json:"manufactureDate"`
	ExpiryDate      time.Time           `json:"expiryDate"`
	Status          BatchStatus         `json:"status"`
	Custodian       string              `json:"custodian"` // Identity currently responsible
	SensorID        string              `json:"sensorId"`  // Bound telemetry device, may be empty
	CreatedAt       time.Time           `json:"createdAt"`
	LastUpdatedAt   time.Time           `json:"lastUpdatedAt"`
	Recall          *RecallInfo         `json:"recall,omitempty"`
	History         []BatchHistoryEntry `json:"history"`
}
