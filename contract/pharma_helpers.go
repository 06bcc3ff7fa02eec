package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmatrace/ledger"
	"pharmatrace/model"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const keySep = "~"

// stubStore adapts the Fabric world state to ledger.Store. Keys of the form
// "ObjectType~attr" become composite keys; singleton keys map straight to
// world-state keys. Fabric's endorsement model gives the ledger its
// transactional all-or-nothing and per-entity serialization guarantees.
type stubStore struct {
	stub shim.ChaincodeStubInterface
}

func (s stubStore) fabricKey(key string) (string, error) {
	parts := strings.Split(key, keySep)
	if len(parts) == 1 {
		return key, nil
	}
	return s.stub.CreateCompositeKey(parts[0], parts[1:])
}

func (s stubStore) Get(key string) ([]byte, error) {
	fk, err := s.fabricKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for '%s': %w", key, err)
	}
	return s.stub.GetState(fk)
}

func (s stubStore) Put(key string, value []byte) error {
	fk, err := s.fabricKey(key)
	if err != nil {
		return fmt.Errorf("failed to create key for '%s': %w", key, err)
	}
	return s.stub.PutState(fk, value)
}

func (s stubStore) Delete(key string) error {
	fk, err := s.fabricKey(key)
	if err != nil {
		return fmt.Errorf("failed to create key for '%s': %w", key, err)
	}
	return s.stub.DelState(fk)
}

func (s stubStore) List(prefix string) ([]ledger.KV, error) {
	objectType := strings.TrimSuffix(prefix, keySep)
	iterator, err := s.stub.GetStateByPartialCompositeKey(objectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to query object type '%s': %w", objectType, err)
	}
	defer iterator.Close()

	kvs := []ledger.KV{}
	for iterator.HasNext() {
		response, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate object type '%s': %w", objectType, err)
		}
		ot, attrs, err := s.stub.SplitCompositeKey(response.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to split key '%s': %w", response.Key, err)
		}
		key := ot
		if len(attrs) > 0 {
			key += keySep + strings.Join(attrs, keySep)
		}
		kvs = append(kvs, ledger.KV{Key: key, Value: response.Value})
	}
	return kvs, nil
}

// stubSink forwards committed events to the chaincode event mechanism so
// channel subscribers receive them alongside the persisted feed.
type stubSink struct {
	stub shim.ChaincodeStubInterface
}

func (s stubSink) Emit(event model.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warningf("failed to marshal event '%s' (seq %d): %v", event.Type, event.Sequence, err)
		return
	}
	if err := s.stub.SetEvent(event.Type, payload); err != nil {
		logger.Warningf("failed to set event '%s' (seq %d): %v", event.Type, event.Sequence, err)
	}
}

// ledgerFor builds the command processor over the transaction's stub.
func ledgerFor(ctx contractapi.TransactionContextInterface) *ledger.Ledger {
	stub := ctx.GetStub()
	return ledger.New(stubStore{stub: stub}, ledger.WithEventSink(stubSink{stub: stub}))
}

// callerID resolves the transaction invoker. Authentication happens in the
// Fabric membership layer; the core receives the identity fully resolved.
func callerID(ctx contractapi.TransactionContextInterface) (string, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	return id, nil
}

// txTime retrieves the transaction timestamp, the ledger's "now".
func txTime(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// callerAndTime bundles the two lookups every command performs.
func callerAndTime(ctx contractapi.TransactionContextInterface) (string, time.Time, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	now, err := txTime(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	return caller, now, nil
}

// parseDateString parses an RFC3339 date argument.
func parseDateString(value, field string, required bool) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if required {
			return time.Time{}, fmt.Errorf("%s is a required date field and cannot be empty", field)
		}
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid format for %s (expected RFC3339 'YYYY-MM-DDTHH:MM:SSZ'): %w", field, err)
	}
	return t, nil
}

// parseEvidenceRefs decodes the optional JSON array of evidence references.
func parseEvidenceRefs(evidenceJSON string) ([]string, error) {
	if strings.TrimSpace(evidenceJSON) == "" {
		return []string{}, nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(evidenceJSON), &refs); err != nil {
		return nil, fmt.Errorf("invalid evidenceRefsJSON: %w", err)
	}
	return refs, nil
}
