package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvalidRecord       = errors.New("invalid invoice record")
	ErrEmptyBatch          = errors.New("no invoices provided")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrNoText              = errors.New("no text could be extracted from document")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrNoDuplicateOracle   = errors.New("duplicate oracle is required")
	ErrMissingKeyFields    = errors.New("invoice number, date, seller and buyer are required to store an invoice")
)
