package contract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("docproof.documentcontract")

// documentObjectType is used for composite keys and as the 'objectType' field
// for CouchDB rich queries.
const documentObjectType = "DocumentRecord"

// Constants for input validation and limits
const (
	maxCertificateNumberLength = 64
	documentHashLength         = 64 // hex-encoded SHA-256
	maxPageSize                = 100
	defaultPageSize            = 10
)

var hexDigestPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// DocProofSmartContract manages the append-only registry of document
// certification records. It exposes exactly the registration and read
// operations; records are immutable, so there is no update or delete.
// @contract:DocProofSmartContract
type DocProofSmartContract struct {
	contractapi.Contract
}

// Instantiate is called during chaincode instantiation.
// It's a lifecycle method of the contract.
func (s *DocProofSmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("DocProofSmartContract Instantiated/Upgraded")
}

// --- Validation Helper Functions ---

func (s *DocProofSmartContract) validateCertificateNumber(certificateNumber string) error {
	certificateNumber = strings.TrimSpace(certificateNumber)
	if certificateNumber == "" {
		return fmt.Errorf("certificateNumber cannot be empty")
	}
	if len(certificateNumber) > maxCertificateNumberLength {
		return fmt.Errorf("certificateNumber exceeds max length %d", maxCertificateNumberLength)
	}
	return nil
}

func (s *DocProofSmartContract) validateDocumentHash(documentHash string) error {
	if strings.TrimSpace(documentHash) == "" {
		return fmt.Errorf("documentHash cannot be empty")
	}
	if !hexDigestPattern.MatchString(documentHash) {
		return fmt.Errorf("documentHash must be a %d-character hex-encoded SHA-256 digest", documentHashLength)
	}
	return nil
}
