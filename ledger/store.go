package ledger

import "fmt"

// Store is the key-value state the ledger runs against. Keys are built by the
// helpers below as "ObjectType~attr" so that a prefix scan over one object
// type is a List on "ObjectType~". Implementations must return (nil, nil) for
// absent keys and keep List results in lexical key order.
//
// The production implementation adapts the Fabric chaincode stub; MemStore
// serves tests and in-process embedding.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	List(prefix string) ([]KV, error)
}

// KV is one key-value pair returned by Store.List.
type KV struct {
	Key   string
	Value []byte
}

// Object types used as key prefixes, also stored as objectType discriminators
// in the JSON values.
const (
	batchObjectType       = "Batch"
	accessObjectType      = "Access"
	stakeholderObjectType = "Stakeholder"
	telemetryObjectType   = "Telemetry"
	auditObjectType       = "Audit"
	complianceObjectType  = "Compliance"
	proposalObjectType    = "Proposal"
	eventObjectType       = "Event"

	governanceKey = "Governance"
	boundsKey     = "TelemetryBounds"
	eventSeqKey   = "EventSeq"

	keySep = "~"
)

func batchKey(id string) string            { return batchObjectType + keySep + id }
func accessKey(identity string) string     { return accessObjectType + keySep + identity }
func stakeholderKey(identity string) string {
	return stakeholderObjectType + keySep + identity
}
func telemetryKey(batchID string) string  { return telemetryObjectType + keySep + batchID }
func auditKey(batchID string) string      { return auditObjectType + keySep + batchID }
func complianceKey(recordID string) string {
	return complianceObjectType + keySep + recordID
}
func proposalKey(id string) string { return proposalObjectType + keySep + id }

// eventKey zero-pads the sequence so lexical key order is sequence order.
func eventKey(seq uint64) string { return fmt.Sprintf("%s%s%020d", eventObjectType, keySep, seq) }
