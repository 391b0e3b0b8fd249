package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"docproof/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Registration ---

// RegisterDocument records the fingerprint of a document under a certificate
// number. It fails if the certificate number is already registered; a record,
// once written, is never updated or deleted. The registration time is the
// transaction timestamp assigned by the ledger.
func (s *DocProofSmartContract) RegisterDocument(ctx contractapi.TransactionContextInterface,
	certificateNumber string, documentHash string) (*model.RegistrationResult, error) {

	certificateNumber = strings.TrimSpace(certificateNumber)
	registeredBy := s.getClientID(ctx)
	logger.Infof("RegisterDocument: registering certificate '%s' (caller: '%s')", certificateNumber, registeredBy)

	if err := s.validateCertificateNumber(certificateNumber); err != nil {
		return nil, err
	}
	if err := s.validateDocumentHash(documentHash); err != nil {
		return nil, err
	}
	documentHash = strings.ToLower(documentHash)

	documentKey, err := s.createDocumentCompositeKey(ctx, certificateNumber)
	if err != nil {
		return nil, fmt.Errorf("RegisterDocument: failed to create composite key for certificate '%s': %w", certificateNumber, err)
	}
	existing, err := ctx.GetStub().GetState(documentKey)
	if err != nil {
		return nil, fmt.Errorf("RegisterDocument: failed to check for existing certificate '%s': %w", certificateNumber, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("document with certificate number '%s' already exists", certificateNumber)
	}

	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("RegisterDocument: failed to get transaction timestamp: %w", err)
	}

	record := model.DocumentRecord{
		ObjectType:        documentObjectType,
		CertificateNumber: certificateNumber,
		DocumentHash:      documentHash,
		Timestamp:         now.Unix(),
		RegisteredBy:      registeredBy,
	}

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("RegisterDocument: failed to marshal record for certificate '%s': %w", certificateNumber, err)
	}
	if err := ctx.GetStub().PutState(documentKey, recordBytes); err != nil {
		return nil, fmt.Errorf("RegisterDocument: failed to save record for certificate '%s' to ledger: %w", certificateNumber, err)
	}

	s.emitDocumentEvent(ctx, "DocumentRegistered", &record)
	logger.Infof("RegisterDocument: certificate '%s' registered at %d", certificateNumber, record.Timestamp)
	return &model.RegistrationResult{
		CertificateNumber: certificateNumber,
		Timestamp:         record.Timestamp,
	}, nil
}
