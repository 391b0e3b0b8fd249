package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"docproof/internal/certid"
	"docproof/internal/digest"
	"docproof/internal/stamper"
	"docproof/model"
)

type uploadResponse struct {
	CertificateNumber string `json:"certificateNumber"`
	DocumentHash      string `json:"documentHash"`
	FileName          string `json:"fileName"`
	CertifiedFileName string `json:"certifiedFileName"`
	FileSize          int64  `json:"fileSize"`
	TxHash            string `json:"txHash"`
	DownloadURL       string `json:"downloadUrl"`
	QRData            string `json:"qrData"`
}

type verifyRequest struct {
	CertificateNumber string `json:"certificateNumber"`
	DocumentHash      string `json:"documentHash"`
}

type verifyQRRequest struct {
	QRData string `json:"qrData"`
}

type documentResponse struct {
	Exists            bool   `json:"exists"`
	CertificateNumber string `json:"certificateNumber"`
	DocumentHash      string `json:"documentHash,omitempty"`
	Timestamp         int64  `json:"timestamp,omitempty"`
	RegistrationDate  string `json:"registrationDate,omitempty"`
}

// handleUpload certifies a new document: fingerprint the original bytes, mint
// an identifier, record the pair on the ledger, then render the stamped copy.
func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return s.writeError(c, model.NewError(model.ErrCodeValidation, "multipart field 'file' is required"))
	}
	data, err := readUpload(fileHeader)
	if err != nil {
		return s.writeError(c, err)
	}
	if _, err := stamper.DetectKind(fileHeader.Filename, data); err != nil {
		return s.writeError(c, err)
	}

	documentHash := digest.Bytes(data)

	// The raw upload is retained on success; every failure past this point
	// removes it so failed requests do not accumulate on disk.
	rawPath := filepath.Join(s.cfg.UploadDir, uuid.NewString()+"_"+filepath.Base(fileHeader.Filename))
	if err := os.WriteFile(rawPath, data, 0o644); err != nil {
		return s.writeError(c, model.WrapError(model.ErrCodeInternal, "failed to store upload", err))
	}
	cleanupRaw := func() {
		if removeErr := os.Remove(rawPath); removeErr != nil {
			s.log.WithError(removeErr).Warn("failed to remove uploaded temp file")
		}
	}

	certificateNumber := certid.New()
	receipt, err := s.reg.Register(c.Request().Context(), certificateNumber, documentHash)
	if err != nil {
		cleanupRaw()
		return s.writeError(c, err)
	}

	stamped, err := s.stamper.Stamp(stamper.Request{
		OriginalName:      fileHeader.Filename,
		Data:              data,
		CertificateNumber: certificateNumber,
		DocumentHash:      documentHash,
		Timestamp:         receipt.Timestamp,
	})
	if err != nil {
		cleanupRaw()
		return s.writeError(c, err)
	}

	s.log.WithFields(logrus.Fields{
		"certificateNumber": certificateNumber,
		"fileName":          fileHeader.Filename,
		"txId":              receipt.TxID,
	}).Info("document certified")

	return c.JSON(http.StatusOK, uploadResponse{
		CertificateNumber: certificateNumber,
		DocumentHash:      documentHash,
		FileName:          fileHeader.Filename,
		CertifiedFileName: stamped.FileName,
		FileSize:          fileHeader.Size,
		TxHash:            receipt.TxID,
		DownloadURL:       "/download/" + stamped.FileName,
		QRData:            stamped.Payload,
	})
}

// handleVerify verifies an explicitly supplied certificate number and hash.
func (s *Server) handleVerify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, model.NewError(model.ErrCodeValidation, "request body must be JSON with certificateNumber and documentHash"))
	}
	verdict, err := s.reconciler.ByHash(c.Request().Context(), req.CertificateNumber, req.DocumentHash)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, verdict)
}

// handleVerifyUpload verifies an uploaded file. With a certificateNumber form
// field the file is treated as the original document and re-fingerprinted;
// without one it is treated as a stamped artifact and the embedded payload is
// extracted instead.
func (s *Server) handleVerifyUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return s.writeError(c, model.NewError(model.ErrCodeValidation, "multipart field 'file' is required"))
	}
	data, err := readUpload(fileHeader)
	if err != nil {
		return s.writeError(c, err)
	}

	ctx := c.Request().Context()
	var verdict *model.Verdict
	if certificateNumber := strings.TrimSpace(c.FormValue("certificateNumber")); certificateNumber != "" {
		verdict, err = s.reconciler.ByFile(ctx, certificateNumber, data)
	} else {
		verdict, err = s.reconciler.ByStampedArtifact(ctx, data)
	}
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, verdict)
}

// handleVerifyQR verifies a payload string scanned from a stamped artifact's QR code.
func (s *Server) handleVerifyQR(c echo.Context) error {
	var req verifyQRRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.QRData) == "" {
		return s.writeError(c, model.NewError(model.ErrCodeValidation, "request body must be JSON with qrData"))
	}
	verdict, err := s.reconciler.ByQRData(c.Request().Context(), req.QRData)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, verdict)
}

// handleGetDocument returns the stored registration record, or 404.
func (s *Server) handleGetDocument(c echo.Context) error {
	certificateNumber := c.Param("certificateNumber")
	record, err := s.reg.Lookup(c.Request().Context(), certificateNumber)
	if err != nil {
		if coded, ok := model.AsCoded(err); ok && coded.Code == model.ErrCodeNotFound {
			return c.JSON(http.StatusNotFound, documentResponse{Exists: false, CertificateNumber: certificateNumber})
		}
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, documentResponse{
		Exists:            true,
		CertificateNumber: record.CertificateNumber,
		DocumentHash:      record.DocumentHash,
		Timestamp:         record.Timestamp,
		RegistrationDate:  record.RegistrationDate().Format(time.RFC3339),
	})
}

// handleDownload serves a stamped artifact as a forced attachment.
func (s *Server) handleDownload(c echo.Context) error {
	fileName := c.Param("filename")
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return s.writeError(c, model.NewError(model.ErrCodeValidation, "invalid file name"))
	}
	path := filepath.Join(s.cfg.CertifiedDir, fileName)
	if _, err := os.Stat(path); err != nil {
		return s.writeError(c, model.Errorf(model.ErrCodeNotFound, "no certified file named '%s'", fileName))
	}
	return c.Attachment(path, fileName)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"registry": s.reg.Name(),
	})
}

// readUpload loads the multipart file, enforcing the 10 MiB cap.
func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	if fileHeader.Size > maxUploadBytes {
		return nil, model.Errorf(model.ErrCodeValidation, "file exceeds the %d MiB upload limit", maxUploadBytes>>20)
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, model.WrapError(model.ErrCodeInternal, "failed to open upload", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return nil, model.WrapError(model.ErrCodeInternal, "failed to read upload", err)
	}
	if len(data) > maxUploadBytes {
		return nil, model.Errorf(model.ErrCodeValidation, "file exceeds the %d MiB upload limit", maxUploadBytes>>20)
	}
	if len(data) == 0 {
		return nil, model.NewError(model.ErrCodeValidation, "uploaded file is empty")
	}
	return data, nil
}

// writeError maps the error taxonomy onto HTTP statuses and emits the
// structured JSON error body.
func (s *Server) writeError(c echo.Context, err error) error {
	coded, ok := model.AsCoded(err)
	if !ok {
		coded = model.WrapError(model.ErrCodeInternal, "internal error", err)
	}
	status := statusFor(coded.Code)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	} else {
		s.log.WithError(err).Debug("request rejected")
	}
	return c.JSON(status, coded)
}

func statusFor(code model.ErrorCode) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInvalidCertificateData:
		return http.StatusBadRequest
	case model.ErrCodeNotFound, model.ErrCodeNoCertificateFound:
		return http.StatusNotFound
	case model.ErrCodeAlreadyExists:
		return http.StatusConflict
	case model.ErrCodeRegistryUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeRenderingFailure, model.ErrCodeInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
