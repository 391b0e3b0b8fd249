package model

import "time"

// documentObjectType mirrors the composite-key object type used by the contract.
// It is stored in each record as 'objectType' so CouchDB rich queries can filter on it.
const DocumentObjectType = "DocumentRecord"

// DocumentRecord is the on-ledger registration record for a certified document.
// A record is written exactly once by RegisterDocument and never updated or
// deleted; the ledger is append-only within this system's scope.
type DocumentRecord struct {
	ObjectType        string `json:"objectType"` // "DocumentRecord"
	CertificateNumber string `json:"certificateNumber"`
	DocumentHash      string `json:"documentHash"` // lowercase hex SHA-256 of the original bytes
	Timestamp         int64  `json:"timestamp"`    // seconds since epoch, assigned from the tx timestamp
	RegisteredBy      string `json:"registeredBy,omitempty"`
}

// RegistrationDate returns the record's timestamp as a UTC time.
func (r *DocumentRecord) RegistrationDate() time.Time {
	return time.Unix(r.Timestamp, 0).UTC()
}

// RegistrationResult is returned by the contract's RegisterDocument operation.
type RegistrationResult struct {
	CertificateNumber string `json:"certificateNumber"`
	Timestamp         int64  `json:"timestamp"`
}

// VerificationResult is returned by the contract's VerifyDocument operation.
// For an unknown certificate number, Matches is false and Timestamp is 0.
// The stored timestamp is returned regardless of match outcome.
type VerificationResult struct {
	Matches   bool  `json:"matches"`
	Timestamp int64 `json:"timestamp"`
}

// DocumentHistoryEntry represents one historical ledger state of a record.
// With the append-only contract a record's history always has a single
// creation entry; the operation exists for audit tooling.
type DocumentHistoryEntry struct {
	TxID      string          `json:"txId"`
	Timestamp time.Time       `json:"timestamp"`
	IsDelete  bool            `json:"isDelete"`
	Record    *DocumentRecord `json:"record"`
}

// PaginatedDocumentResponse is the structure returned by paginated document queries.
type PaginatedDocumentResponse struct {
	Documents    []*DocumentRecord `json:"documents"`
	NextBookmark string            `json:"nextBookmark"`
	FetchedCount int32             `json:"fetchedCount"`
}

// Verdict is the ephemeral result of a verification request. It is computed
// fresh on every request and never persisted or cached.
type Verdict struct {
	IsValid           bool   `json:"isValid"`
	CertificateNumber string `json:"certificateNumber"`
	ProvidedHash      string `json:"providedHash"`
	RegisteredHash    string `json:"registeredHash"`
	Timestamp         int64  `json:"timestamp"`
	RegistrationDate  string `json:"registrationDate,omitempty"` // RFC3339, empty when unregistered
	Message           string `json:"message"`
}
