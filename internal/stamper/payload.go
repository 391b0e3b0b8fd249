package stamper

import (
	"bytes"
	"fmt"
	"strings"

	"docproof/internal/certid"
	"docproof/internal/digest"
	"docproof/model"
)

// The machine-recoverable payload embedded in every stamped artifact:
//
//	DOCPROOF|1|<certificateNumber>|<documentHash>
//
// The same string is encoded in the QR image and written verbatim into the
// artifact (PDF metadata, text trailer), so re-verification never has to
// render the document.
const (
	payloadScheme  = "DOCPROOF"
	payloadVersion = "1"
	payloadMarker  = payloadScheme + "|" + payloadVersion + "|"
)

// payloadCharset covers every byte that can legally appear in a payload
// string; extraction scans until the first byte outside it.
func payloadByteAllowed(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '|' || b == '-':
		return true
	}
	return false
}

// BuildPayload serializes the registration pair into the compact payload form.
func BuildPayload(certificateNumber, documentHash string) string {
	return payloadMarker + certificateNumber + "|" + documentHash
}

// ParsePayload recovers {certificateNumber, documentHash} from a payload
// string, e.g. one scanned from a QR code.
func ParsePayload(payload string) (certificateNumber, documentHash string, err error) {
	payload = strings.TrimSpace(payload)
	if payload == "" || !strings.HasPrefix(payload, payloadScheme+"|") {
		return "", "", model.NewError(model.ErrCodeNoCertificateFound, "no certification payload present")
	}
	parts := strings.Split(payload, "|")
	if len(parts) != 4 {
		return "", "", model.Errorf(model.ErrCodeInvalidCertificateData, "payload has %d fields, expected 4", len(parts))
	}
	if parts[1] != payloadVersion {
		return "", "", model.Errorf(model.ErrCodeInvalidCertificateData, "unsupported payload version '%s'", parts[1])
	}
	certificateNumber, documentHash = parts[2], strings.ToLower(parts[3])
	if !certid.Valid(certificateNumber) {
		return "", "", model.Errorf(model.ErrCodeInvalidCertificateData, "malformed certificate number '%s'", certificateNumber)
	}
	if !digest.Valid(documentHash) {
		return "", "", model.NewError(model.ErrCodeInvalidCertificateData, "malformed document fingerprint")
	}
	return certificateNumber, documentHash, nil
}

// ExtractPayload locates the embedded payload inside a stamped artifact's raw
// bytes. It works for every output variant: the payload sits in the PDF Info
// dictionary for PDF and image outputs, and in the trailing block for text.
func ExtractPayload(data []byte) (certificateNumber, documentHash string, err error) {
	idx := bytes.Index(data, []byte(payloadMarker))
	if idx < 0 {
		return "", "", model.NewError(model.ErrCodeNoCertificateFound, "no certification payload found in document")
	}
	end := idx
	for end < len(data) && payloadByteAllowed(data[end]) {
		end++
	}
	return ParsePayload(string(data[idx:end]))
}

// truncateHash shortens a fingerprint for human-legible annotations.
func truncateHash(documentHash string) string {
	if len(documentHash) <= 20 {
		return documentHash
	}
	return fmt.Sprintf("%s..%s", documentHash[:12], documentHash[len(documentHash)-8:])
}
