package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"docproof/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---

// getDocumentByNumber is an internal helper to retrieve and unmarshal a record.
func (s *DocProofSmartContract) getDocumentByNumber(ctx contractapi.TransactionContextInterface, certificateNumber string) (*model.DocumentRecord, error) {
	if strings.TrimSpace(certificateNumber) == "" {
		return nil, errors.New("getDocumentByNumber: certificateNumber cannot be empty")
	}
	documentKey, err := s.createDocumentCompositeKey(ctx, certificateNumber)
	if err != nil {
		return nil, fmt.Errorf("getDocumentByNumber: failed to create key for certificate '%s': %w", certificateNumber, err)
	}

	recordBytes, err := ctx.GetStub().GetState(documentKey)
	if err != nil {
		return nil, fmt.Errorf("getDocumentByNumber: failed to read certificate '%s' from ledger: %w", certificateNumber, err)
	}
	if recordBytes == nil {
		return nil, fmt.Errorf("document with certificate number '%s' does not exist", certificateNumber)
	}

	var record model.DocumentRecord
	if err = json.Unmarshal(recordBytes, &record); err != nil {
		return nil, fmt.Errorf("getDocumentByNumber: failed to unmarshal record for certificate '%s': %w", certificateNumber, err)
	}
	return &record, nil
}

// GetDocument returns the stored registration record for a certificate number,
// or an explicit does-not-exist error. It never returns a partial record.
func (s *DocProofSmartContract) GetDocument(ctx contractapi.TransactionContextInterface, certificateNumber string) (*model.DocumentRecord, error) {
	logger.Debugf("GetDocument: querying certificate '%s'", certificateNumber)
	if err := s.validateCertificateNumber(certificateNumber); err != nil {
		return nil, err
	}
	return s.getDocumentByNumber(ctx, strings.TrimSpace(certificateNumber))
}

// DocumentExists reports whether a record is present for the certificate number.
func (s *DocProofSmartContract) DocumentExists(ctx contractapi.TransactionContextInterface, certificateNumber string) (bool, error) {
	if err := s.validateCertificateNumber(certificateNumber); err != nil {
		return false, err
	}
	documentKey, err := s.createDocumentCompositeKey(ctx, strings.TrimSpace(certificateNumber))
	if err != nil {
		return false, fmt.Errorf("DocumentExists: failed to create key for certificate '%s': %w", certificateNumber, err)
	}
	recordBytes, err := ctx.GetStub().GetState(documentKey)
	if err != nil {
		return false, fmt.Errorf("DocumentExists: failed to read certificate '%s' from ledger: %w", certificateNumber, err)
	}
	return recordBytes != nil, nil
}

// VerifyDocument compares a candidate fingerprint against the stored one.
// For an unknown certificate number it returns matches=false with timestamp 0;
// otherwise the stored registration time is returned regardless of match
// outcome. The fingerprint is a public commitment, so plain equality is used.
func (s *DocProofSmartContract) VerifyDocument(ctx contractapi.TransactionContextInterface,
	certificateNumber string, candidateHash string) (*model.VerificationResult, error) {

	logger.Debugf("VerifyDocument: verifying certificate '%s'", certificateNumber)
	if err := s.validateCertificateNumber(certificateNumber); err != nil {
		return nil, err
	}
	if err := s.validateDocumentHash(candidateHash); err != nil {
		return nil, err
	}

	documentKey, err := s.createDocumentCompositeKey(ctx, strings.TrimSpace(certificateNumber))
	if err != nil {
		return nil, fmt.Errorf("VerifyDocument: failed to create key for certificate '%s': %w", certificateNumber, err)
	}
	recordBytes, err := ctx.GetStub().GetState(documentKey)
	if err != nil {
		return nil, fmt.Errorf("VerifyDocument: failed to read certificate '%s' from ledger: %w", certificateNumber, err)
	}
	if recordBytes == nil {
		return &model.VerificationResult{Matches: false, Timestamp: 0}, nil
	}

	var record model.DocumentRecord
	if err = json.Unmarshal(recordBytes, &record); err != nil {
		return nil, fmt.Errorf("VerifyDocument: failed to unmarshal record for certificate '%s': %w", certificateNumber, err)
	}

	return &model.VerificationResult{
		Matches:   record.DocumentHash == strings.ToLower(candidateHash),
		Timestamp: record.Timestamp,
	}, nil
}

// GetAllDocuments returns every registration record. Intended for small
// deployments and audit tooling; use GetDocumentsPaginated otherwise.
func (s *DocProofSmartContract) GetAllDocuments(ctx contractapi.TransactionContextInterface) ([]*model.DocumentRecord, error) {
	logger.Debug("GetAllDocuments: querying all records")

	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(documentObjectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("GetAllDocuments: failed to get records iterator: %w", err)
	}
	defer resultsIterator.Close()

	records := []*model.DocumentRecord{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetAllDocuments: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var record model.DocumentRecord
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &record); errUnmarshal != nil {
			logger.Warningf("GetAllDocuments: Error unmarshalling record for key '%s': %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		records = append(records, &record)
	}

	logger.Infof("GetAllDocuments: Returning %d records", len(records))
	return records, nil
}

// GetDocumentsPaginated returns one page of registration records using the
// ledger's pagination support.
func (s *DocProofSmartContract) GetDocumentsPaginated(ctx contractapi.TransactionContextInterface, pageSizeStr string, bookmark string) (*model.PaginatedDocumentResponse, error) {
	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	logger.Debugf("GetDocumentsPaginated: pageSize %d, bookmark '%s'", pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(documentObjectType, []string{}, int32(pageSize), bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetDocumentsPaginated: failed to get records iterator: %w", err)
	}
	defer resultsIterator.Close()

	records := []*model.DocumentRecord{}
	fetchedCount := int32(0)
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetDocumentsPaginated: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var record model.DocumentRecord
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &record); errUnmarshal != nil {
			logger.Warningf("GetDocumentsPaginated: Error unmarshalling record for key '%s': %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		records = append(records, &record)
		fetchedCount++
	}

	return &model.PaginatedDocumentResponse{
		Documents:    records,
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

// GetDocumentHistory returns the ledger history for a certificate number.
// Records are immutable, so a registered certificate has exactly one creation
// entry; the operation exists for audit verification of that invariant.
func (s *DocProofSmartContract) GetDocumentHistory(ctx contractapi.TransactionContextInterface, certificateNumber string) ([]model.DocumentHistoryEntry, error) {
	if err := s.validateCertificateNumber(certificateNumber); err != nil {
		return nil, err
	}
	documentKey, err := s.createDocumentCompositeKey(ctx, strings.TrimSpace(certificateNumber))
	if err != nil {
		return nil, fmt.Errorf("GetDocumentHistory: failed to create key for certificate '%s': %w", certificateNumber, err)
	}

	entries := []model.DocumentHistoryEntry{}
	historyIter, err := ctx.GetStub().GetHistoryForKey(documentKey)
	if err != nil {
		logger.Warningf("GetDocumentHistory: failed to get history for certificate '%s': %v. Returning empty history.", certificateNumber, err)
		return entries, nil
	}
	defer historyIter.Close()

	for historyIter.HasNext() {
		historyItem, iterErr := historyIter.Next()
		if iterErr != nil {
			logger.Warningf("GetDocumentHistory: Error iterating history for '%s': %v. Skipping entry.", certificateNumber, iterErr)
			continue
		}
		entry := model.DocumentHistoryEntry{
			TxID:     historyItem.TxId,
			IsDelete: historyItem.IsDelete,
		}
		if historyItem.Timestamp != nil {
			entry.Timestamp = historyItem.Timestamp.AsTime()
		}
		if !historyItem.IsDelete && len(historyItem.Value) > 0 {
			var record model.DocumentRecord
			if errUnmarshal := json.Unmarshal(historyItem.Value, &record); errUnmarshal == nil {
				entry.Record = &record
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
