package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docproof/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Core Helper Methods (used across multiple operations) ---

// getCurrentTxTimestamp retrieves the current transaction timestamp from the stub.
// The ledger's tx timestamp is the authoritative registration time; the contract
// never reads the wall clock.
func (s *DocProofSmartContract) getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// createDocumentCompositeKey creates a composite key for a document record.
func (s *DocProofSmartContract) createDocumentCompositeKey(ctx contractapi.TransactionContextInterface, certificateNumber string) (string, error) {
	certificateNumber = strings.TrimSpace(certificateNumber)
	if certificateNumber == "" {
		return "", errors.New("certificateNumber cannot be empty")
	}
	return ctx.GetStub().CreateCompositeKey(documentObjectType, []string{certificateNumber})
}

// getClientID returns the invoking client's full identity, best effort. The
// registry is public, so a missing client identity (e.g. under test stubs)
// is tolerated and recorded as empty.
func (s *DocProofSmartContract) getClientID(ctx contractapi.TransactionContextInterface) string {
	ci := ctx.GetClientIdentity()
	if ci == nil {
		logger.Debug("getClientID: no client identity available on transaction context")
		return ""
	}
	id, err := ci.GetID()
	if err != nil {
		logger.Debugf("getClientID: failed to resolve client identity: %v", err)
		return ""
	}
	return id
}

// emitDocumentEvent sends a chaincode event. Event delivery is advisory;
// failures are logged and do not fail the transaction.
func (s *DocProofSmartContract) emitDocumentEvent(ctx contractapi.TransactionContextInterface, eventName string, record *model.DocumentRecord) {
	if record == nil {
		logger.Errorf("emitDocumentEvent: cannot emit event '%s', record is nil", eventName)
		return
	}
	payload := map[string]interface{}{
		"certificateNumber": record.CertificateNumber,
		"documentHash":      record.DocumentHash,
		"timestamp":         record.Timestamp,
		"registrationDate":  record.RegistrationDate().Format(time.RFC3339),
	}
	if record.RegisteredBy != "" {
		payload["registeredBy"] = record.RegisteredBy
	}
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitDocumentEvent: Failed to marshal event payload for event '%s' on certificate '%s': %v", eventName, record.CertificateNumber, err)
		return
	}
	if errSet := ctx.GetStub().SetEvent(eventName, eventBytes); errSet != nil {
		logger.Warningf("emitDocumentEvent: Failed to set event '%s' for certificate '%s': %v", eventName, record.CertificateNumber, errSet)
	}
}
