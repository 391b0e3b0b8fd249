package stamper

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/internal/digest"
	"docproof/model"
)

const (
	stampTestCert = "CERT-20260826-0417"
	stampTestHash = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"
)

func newTestStamper(t *testing.T) *Stamper {
	t.Helper()
	base := t.TempDir()
	out := filepath.Join(base, "certified")
	qr := filepath.Join(base, "qrcodes")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.MkdirAll(qr, 0o755))
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return New(out, qr, log)
}

func stampRequest(name string, data []byte) Request {
	return Request{
		OriginalName:      name,
		Data:              data,
		CertificateNumber: stampTestCert,
		DocumentHash:      stampTestHash,
		Timestamp:         time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC).Unix(),
	}
}

// sourcePDF builds a small PDF with the given page count to act as the
// uploaded original.
func sourcePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for p := 1; p <= pages; p++ {
		pdf.AddPage()
		pdf.Text(72, 100, fmt.Sprintf("original document body, page %d", p))
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

// pdfPageCount parses a rendered PDF and counts its pages.
func pdfPageCount(t *testing.T, data []byte) int {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "count.pdf")
	require.NoError(t, os.WriteFile(tmp, data, 0o644))
	scratch := gofpdf.New("P", "pt", "A4", "")
	imp := gofpdi.NewImporter()
	imp.ImportPage(scratch, tmp, 1, "/MediaBox")
	return len(imp.GetPageSizes())
}

// sourcePNG builds a small raster image to act as the uploaded original.
func sourcePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPayloadRoundTrip(t *testing.T) {
	payload := BuildPayload(stampTestCert, stampTestHash)
	cert, hash, err := ParsePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, stampTestCert, cert)
	assert.Equal(t, stampTestHash, hash)
}

func TestParsePayloadErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		code    model.ErrorCode
	}{
		{"empty", "", model.ErrCodeNoCertificateFound},
		{"foreign prefix", "OTHER|1|x|y", model.ErrCodeNoCertificateFound},
		{"missing fields", "DOCPROOF|1|CERT-20260826-0417", model.ErrCodeInvalidCertificateData},
		{"bad version", "DOCPROOF|9|" + stampTestCert + "|" + stampTestHash, model.ErrCodeInvalidCertificateData},
		{"bad certificate", "DOCPROOF|1|NOPE|" + stampTestHash, model.ErrCodeInvalidCertificateData},
		{"bad hash", "DOCPROOF|1|" + stampTestCert + "|zzzz", model.ErrCodeInvalidCertificateData},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParsePayload(tc.payload)
			require.Error(t, err)
			coded, ok := model.AsCoded(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, coded.Code)
		})
	}
}

func TestExtractPayloadAbsent(t *testing.T) {
	_, _, err := ExtractPayload([]byte("plain file with no marker at all"))
	require.Error(t, err)
	coded, ok := model.AsCoded(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeNoCertificateFound, coded.Code)
}

func TestStampTextPreservesOriginalPrefix(t *testing.T) {
	s := newTestStamper(t)
	original := []byte("line one\nline two\nno trailing newline")

	result, err := s.Stamp(stampRequest("notes.txt", original))
	require.NoError(t, err)

	stamped, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(stamped, original), "original content must be an exact byte prefix")
	assert.Greater(t, len(stamped), len(original))

	cert, hash, err := ExtractPayload(stamped)
	require.NoError(t, err)
	assert.Equal(t, stampTestCert, cert)
	assert.Equal(t, stampTestHash, hash)
}

func TestStampPDFRoundTrip(t *testing.T) {
	s := newTestStamper(t)

	result, err := s.Stamp(stampRequest("report.pdf", sourcePDF(t, 1)))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.FileName, ".pdf"))
	assert.Contains(t, result.FileName, stampTestCert)

	stamped, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(stamped, []byte("%PDF-")))

	cert, hash, err := ExtractPayload(stamped)
	require.NoError(t, err)
	assert.Equal(t, stampTestCert, cert)
	assert.Equal(t, stampTestHash, hash)

	// QR image cached alongside.
	assert.NotEmpty(t, result.QRPath)
	_, err = os.Stat(result.QRPath)
	assert.NoError(t, err)
}

func TestStampMultiPagePDFKeepsEveryPage(t *testing.T) {
	s := newTestStamper(t)

	result, err := s.Stamp(stampRequest("report.pdf", sourcePDF(t, 3)))
	require.NoError(t, err)

	stamped, err := os.ReadFile(result.Path)
	require.NoError(t, err)

	// All three source pages survive, plus the appended certificate page.
	assert.Equal(t, 4, pdfPageCount(t, stamped))

	cert, hash, err := ExtractPayload(stamped)
	require.NoError(t, err)
	assert.Equal(t, stampTestCert, cert)
	assert.Equal(t, stampTestHash, hash)
}

func TestStampImageWrapsAsDocument(t *testing.T) {
	s := newTestStamper(t)

	result, err := s.Stamp(stampRequest("scan.png", sourcePNG(t)))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.FileName, ".pdf"), "raster input is wrapped as a document")

	stamped, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(stamped, []byte("%PDF-")))

	cert, hash, err := ExtractPayload(stamped)
	require.NoError(t, err)
	assert.Equal(t, stampTestCert, cert)
	assert.Equal(t, stampTestHash, hash)
}

func TestStampRejectsUnsupportedType(t *testing.T) {
	s := newTestStamper(t)

	_, err := s.Stamp(stampRequest("archive.zip", []byte{0x50, 0x4b, 0x03, 0x04, 0, 0, 0, 0}))
	require.Error(t, err)
	coded, ok := model.AsCoded(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeValidation, coded.Code)
}

func TestStampCorruptPDFLeavesNoOutput(t *testing.T) {
	s := newTestStamper(t)

	_, err := s.Stamp(stampRequest("broken.pdf", []byte("%PDF-1.4 then garbage")))
	require.Error(t, err)
	coded, ok := model.AsCoded(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeRenderingFailure, coded.Code)

	entries, err := os.ReadDir(s.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed stamp must not leave a partial artifact")
}

func TestOutputNameNormalization(t *testing.T) {
	name := OutputName("my report (final) v2.pdf", stampTestCert, ".pdf")
	assert.Equal(t, "my_report__final__v2_"+stampTestCert+".pdf", name)
	assert.NotContains(t, name, " ")

	// Same-named files from distinct registrations cannot collide.
	other := OutputName("my report (final) v2.pdf", "CERT-20260826-9999", ".pdf")
	assert.NotEqual(t, name, other)

	// Degenerate names still produce something usable.
	assert.Equal(t, "document_"+stampTestCert+".txt", OutputName("....", stampTestCert, ".txt"))
}

func TestDetectKind(t *testing.T) {
	pdfData := sourcePDF(t, 1)
	pngData := sourcePNG(t)

	kind, err := DetectKind("a.pdf", pdfData)
	require.NoError(t, err)
	assert.Equal(t, KindPDF, kind)

	kind, err = DetectKind("photo.jpeg", pngData) // extension wins for accepted types
	require.NoError(t, err)
	assert.Equal(t, KindImage, kind)

	kind, err = DetectKind("readme", []byte("just some text"))
	require.NoError(t, err)
	assert.Equal(t, KindText, kind)

	_, err = DetectKind("app.exe", []byte{0x4d, 0x5a, 0x90, 0x00, 0x03, 0x00, 0x00, 0x00})
	assert.Error(t, err)
}

func TestDigestOfStampedArtifactDiffersFromOriginal(t *testing.T) {
	// The recorded fingerprint belongs to the original bytes; a stamped copy
	// necessarily hashes differently, which is why extraction recovers the
	// registered pair instead of rehashing.
	s := newTestStamper(t)
	original := []byte("original body\n")

	result, err := s.Stamp(stampRequest("doc.txt", original))
	require.NoError(t, err)

	stamped, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.NotEqual(t, digest.Bytes(original), digest.Bytes(stamped))
}
