// Package stamper produces the certified copy of an uploaded document: a
// derived artifact carrying the certificate number and fingerprint both as a
// human-legible annotation and as a machine-recoverable payload (QR image and
// verbatim metadata). The original bytes used for fingerprinting are never
// modified; the stamped artifact is purely a carrier for re-verification.
package stamper

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"docproof/model"
)

// Kind is the detected input variant; stamping dispatches on it.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindImage
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Request carries everything stamping needs: the original file and its
// registration record.
type Request struct {
	OriginalName      string
	Data              []byte
	CertificateNumber string
	DocumentHash      string
	Timestamp         int64 // seconds since epoch, from the registry receipt
}

// Result describes the written artifact.
type Result struct {
	FileName string // output file name (unique per registration)
	Path     string // absolute/relative path of the stamped artifact
	Payload  string // machine-recoverable payload, also QR content
	QRPath   string // cached QR PNG, empty when no QR dir is configured
}

// Stamper renders certified copies into outDir and caches QR images in qrDir.
type Stamper struct {
	outDir string
	qrDir  string
	log    *logrus.Entry
}

func New(outDir, qrDir string, log *logrus.Logger) *Stamper {
	return &Stamper{
		outDir: outDir,
		qrDir:  qrDir,
		log:    log.WithField("component", "stamper"),
	}
}

// DetectKind classifies the upload from its name and content. Unsupported
// types are a validation failure.
func DetectKind(fileName string, data []byte) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	sniffed := http.DetectContentType(data)
	switch {
	case ext == ".pdf" || strings.HasPrefix(sniffed, "application/pdf"):
		return KindPDF, nil
	case ext == ".png" || ext == ".jpg" || ext == ".jpeg" ||
		sniffed == "image/png" || sniffed == "image/jpeg":
		return KindImage, nil
	case ext == ".txt" || strings.HasPrefix(sniffed, "text/plain"):
		return KindText, nil
	}
	return KindUnknown, model.Errorf(model.ErrCodeValidation,
		"unsupported file type '%s' (%s); accepted: PDF, PNG, JPEG, plain text", ext, sniffed)
}

// Stamp renders the certified copy and writes it atomically: the output file
// either appears complete or not at all.
func (s *Stamper) Stamp(req Request) (*Result, error) {
	kind, err := DetectKind(req.OriginalName, req.Data)
	if err != nil {
		return nil, err
	}
	payload := BuildPayload(req.CertificateNumber, req.DocumentHash)

	var rendered []byte
	var outExt string
	switch kind {
	case KindPDF:
		rendered, err = s.renderPDF(req, payload)
		outExt = ".pdf"
	case KindImage:
		// A raster image is wrapped as a single-page document.
		rendered, err = s.renderImage(req, payload)
		outExt = ".pdf"
	case KindText:
		rendered, err = s.renderText(req, payload)
		outExt = ".txt"
	}
	if err != nil {
		return nil, model.WrapError(model.ErrCodeRenderingFailure,
			fmt.Sprintf("failed to render %s artifact for certificate %s", kind, req.CertificateNumber), err)
	}

	fileName := OutputName(req.OriginalName, req.CertificateNumber, outExt)
	outPath := filepath.Join(s.outDir, fileName)
	if err := writeAtomic(outPath, rendered); err != nil {
		return nil, model.WrapError(model.ErrCodeRenderingFailure,
			fmt.Sprintf("failed to write stamped artifact for certificate %s", req.CertificateNumber), err)
	}

	result := &Result{FileName: fileName, Path: outPath, Payload: payload}
	if s.qrDir != "" {
		qrPath := filepath.Join(s.qrDir, req.CertificateNumber+".png")
		if png, qrErr := qrcode.Encode(payload, qrcode.Medium, qrImageSizePx); qrErr == nil {
			if writeErr := os.WriteFile(qrPath, png, 0o644); writeErr == nil {
				result.QRPath = qrPath
			} else {
				s.log.WithError(writeErr).Warn("failed to cache QR image")
			}
		} else {
			s.log.WithError(qrErr).Warn("failed to encode QR image for cache")
		}
	}

	s.log.WithFields(logrus.Fields{
		"certificateNumber": req.CertificateNumber,
		"kind":              kind.String(),
		"output":            fileName,
	}).Info("stamped artifact written")
	return result, nil
}

// OutputName derives the stamped file name from the original: unsafe
// characters normalized, suffixed with the certificate identifier so two
// registrations of same-named files never collide.
func OutputName(originalName, certificateNumber, outExt string) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	base = sanitizeName(base)
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s_%s%s", base, certificateNumber, outExt)
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

// writeAtomic writes data via a temp file in the target directory and renames
// it into place; on any failure the temp file is removed and the destination
// is left absent.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stamp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// formatTimestamp renders a registration time for human-legible annotations.
func formatTimestamp(ts int64) string {
	if ts <= 0 {
		return "unknown"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// qrPNG encodes the payload as a QR PNG for embedding into rendered pages.
func qrPNG(payload string) (*bytes.Reader, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSizePx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return bytes.NewReader(png), nil
}

const qrImageSizePx = 256
