package contract

import (
	"pharmatrace/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Telemetry Operations ---

// RecordTelemetry appends a sensor reading to a batch's telemetry log.
// readingTimeStr is the time the reading was taken (RFC3339); readings older
// than the staleness window, or from the future, are rejected.
func (s *PharmatraceSmartContract) RecordTelemetry(ctx contractapi.TransactionContextInterface,
	batchID string, temperature, humidity float64, location, readingTimeStr string) (*model.TelemetryReading, error) {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Chaincode Call: RecordTelemetry for batch '%s' by '%s'", batchID, caller)

	readingTime, err := parseDateString(readingTimeStr, "readingTime", true)
	if err != nil {
		return nil, err
	}
	return ledgerFor(ctx).RecordTelemetry(caller, batchID, temperature, humidity, location, readingTime, now)
}

// SetTelemetryBounds updates the validity envelope applied to future
// readings. Already recorded readings keep their verdicts.
func (s *PharmatraceSmartContract) SetTelemetryBounds(ctx contractapi.TransactionContextInterface,
	minTemp, maxTemp, maxHumidity float64) error {

	caller, now, err := callerAndTime(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Chaincode Call: SetTelemetryBounds [%.2f, %.2f] / %.2f%% by '%s'", minTemp, maxTemp, maxHumidity, caller)
	return ledgerFor(ctx).SetTelemetryBounds(caller, minTemp, maxTemp, maxHumidity, now)
}

func (s *PharmatraceSmartContract) GetTelemetryBounds(ctx contractapi.TransactionContextInterface) (*model.TelemetryBounds, error) {
	logger.Debug("Chaincode Call: GetTelemetryBounds")
	return ledgerFor(ctx).TelemetryBounds()
}

func (s *PharmatraceSmartContract) GetTelemetryHistory(ctx contractapi.TransactionContextInterface, batchID string) ([]model.TelemetryReading, error) {
	logger.Debugf("Chaincode Call: GetTelemetryHistory for batch '%s'", batchID)
	return ledgerFor(ctx).TelemetryHistory(batchID)
}

func (s *PharmatraceSmartContract) GetLatestTelemetry(ctx contractapi.TransactionContextInterface, batchID string) (*model.TelemetryReading, error) {
	logger.Debugf("Chaincode Call: GetLatestTelemetry for batch '%s'", batchID)
	return ledgerFor(ctx).LatestTelemetry(batchID)
}

func (s *PharmatraceSmartContract) GetTelemetryAt(ctx contractapi.TransactionContextInterface, batchID string, index int) (*model.TelemetryReading, error) {
	logger.Debugf("Chaincode Call: GetTelemetryAt %d for batch '%s'", index, batchID)
	return ledgerFor(ctx).TelemetryAt(batchID, index)
}
