package stamper

import (
	"bytes"
	"fmt"
)

// renderText appends the certification trailer after the original content.
// The original bytes remain an exact byte-for-byte prefix of the output.
func (s *Stamper) renderText(req Request, payload string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(req.Data)

	buf.WriteString("\n")
	buf.WriteString("========================================================\n")
	buf.WriteString("            BLOCKCHAIN CERTIFIED DOCUMENT\n")
	buf.WriteString("========================================================\n")
	fmt.Fprintf(&buf, "Certificate Number : %s\n", req.CertificateNumber)
	fmt.Fprintf(&buf, "Document Hash      : %s\n", truncateHash(req.DocumentHash))
	fmt.Fprintf(&buf, "Registered (UTC)   : %s\n", formatTimestamp(req.Timestamp))
	buf.WriteString("This document's fingerprint is recorded on an append-only\n")
	buf.WriteString("ledger. To verify, submit the certificate number and the\n")
	buf.WriteString("original document (or the line below) to the verification\n")
	buf.WriteString("service.\n")
	fmt.Fprintf(&buf, "%s\n", payload)
	buf.WriteString("========================================================\n")

	return buf.Bytes(), nil
}
