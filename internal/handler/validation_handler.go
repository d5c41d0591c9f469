package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"invoiceqc/internal/report"
	"invoiceqc/internal/service"
	"invoiceqc/internal/validator/invoice"
)

// maxMultipartMemory is the in-memory part of a multipart upload; the rest
// spills to temporary files.
const maxMultipartMemory = 32 << 20

// ValidationHandler serves the validation and extraction endpoints. Both
// return the report body directly: validation outcomes are data, so they
// are never wrapped in the error envelope and always answer 200.
type ValidationHandler struct {
	validation service.ValidationService
	extraction service.ExtractionService
	maxFile    int64
	maxBody    int64
}

// NewValidationHandler creates a new ValidationHandler. maxFileBytes caps
// each uploaded PDF and maxBodyBytes caps a /validate-json body; 0 disables
// either check.
func NewValidationHandler(validation service.ValidationService, extraction service.ExtractionService, maxFileBytes, maxBodyBytes int64) *ValidationHandler {
	return &ValidationHandler{validation: validation, extraction: extraction, maxFile: maxFileBytes, maxBody: maxBodyBytes}
}

// ValidateJSON handles POST /validate-json
//
// The body is a JSON array of invoice records. Query parameters:
// persist=true stores the batch; format=csv|xlsx returns a downloadable
// report instead of JSON.
func (h *ValidationHandler) ValidateJSON(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", err.Error())
		return
	}
	persist, _ := strconv.ParseBool(c.DefaultQuery("persist", "false"))

	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(c, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
				fmt.Sprintf("request body exceeds %d bytes", h.maxBody))
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "could not read request body")
		return
	}
	records, err := invoice.DecodeRecords(body)
	if err != nil {
		HandleError(c, err)
		return
	}

	rep, err := h.validation.ValidateBatch(c.Request.Context(), records, persist)
	if err != nil {
		HandleError(c, err)
		return
	}

	if format == report.FormatJSON {
		c.JSON(http.StatusOK, rep)
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, format, rep); err != nil {
		HandleError(c, fmt.Errorf("rendering %s report: %w", format, err))
		return
	}
	filename := report.BuildFilename("validation_report", format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// ExtractAndValidatePDFs handles POST /extract-and-validate-pdfs
//
// Accepts multipart form field "files" (one or more). Non-PDF files are
// skipped but still counted in total_files.
func (h *ValidationHandler) ExtractAndValidatePDFs(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "expected multipart form data")
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "files field is required")
		return
	}

	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if h.maxFile > 0 && fh.Size > h.maxFile {
			RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("%s exceeds maximum allowed size", fh.Filename))
			return
		}
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
			return
		}
		files = append(files, service.UploadedFile{Name: fh.Filename, Data: data})
	}

	out, err := h.extraction.ExtractAndValidate(c.Request.Context(), files)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
