package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
	"invoiceqc/internal/report"
	"invoiceqc/internal/service"
	"invoiceqc/internal/validator"
	"invoiceqc/internal/validator/invoice"
	"invoiceqc/mocks"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, oracle port.DuplicateOracle) *validator.Engine {
	t.Helper()
	e, err := validator.NewEngine(oracle, validator.Options{
		Rules: invoice.RuleOptions{Now: func() time.Time { return fixedNow }},
	})
	require.NoError(t, err)
	return e
}

func validFields(number string) map[string]any {
	return map[string]any{
		"invoice_number": number,
		"invoice_date":   "2024-01-15",
		"due_date":       "2024-02-15",
		"seller_name":    "ABC Corp",
		"buyer_name":     "XYZ Ltd",
		"currency":       "USD",
		"net_total":      json.Number("1000.00"),
		"tax_amount":     json.Number("180.00"),
		"gross_total":    json.Number("1180.00"),
		"line_items":     []any{},
	}
}

type fakeArchiver struct {
	calls int
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, _ *validator.BatchReport) (*report.ArchiveResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &report.ArchiveResult{Key: "reports/k.json", URL: "https://signed"}, nil
}

// --- ValidationService ---

func TestValidateBatch_NoPersist(t *testing.T) {
	invoices := new(mocks.MockInvoiceRepo)
	invoices.On("Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	svc := service.NewValidationService(newEngine(t, invoices), invoices, new(mocks.MockValidationResultRepo), nil)

	broken := validFields("INV-2")
	broken["gross_total"] = json.Number("1100.00")

	rep, err := svc.ValidateBatch(context.Background(), []*invoice.Record{
		invoice.NewRecord(validFields("INV-1")),
		invoice.NewRecord(broken),
	}, false)
	require.NoError(t, err)

	require.Len(t, rep.Results, 2)
	assert.True(t, rep.Results[0].IsValid)
	assert.False(t, rep.Results[1].IsValid)
	assert.Equal(t, 2, rep.Summary.TotalInvoices)
	assert.Equal(t, 1, rep.Summary.ValidInvoices)
	invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestValidateBatch_PersistsAfterValidation(t *testing.T) {
	invoices := new(mocks.MockInvoiceRepo)
	results := new(mocks.MockValidationResultRepo)

	saved := false
	invoices.On("Exists", mock.Anything, "INV-1", "ABC Corp", "2024-01-15").
		Run(func(mock.Arguments) { assert.False(t, saved, "lookup after save") }).
		Return(false, nil)
	invoices.On("Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	invoices.On("Save", mock.Anything, mock.MatchedBy(func(m map[string]any) bool { return m["invoice_number"] == "INV-1" })).
		Run(func(mock.Arguments) { saved = true }).
		Return(int64(7), nil)
	invoices.On("Save", mock.Anything, mock.Anything).Return(int64(0), domain.ErrMissingKeyFields)
	results.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.StoredValidationResult) bool {
		return r.InvoiceID == 7 && r.IsValid && r.ErrorsJSON == "[]"
	})).Return(nil)

	missing := validFields("")
	delete(missing, "seller_name")

	rep, err := service.NewValidationService(newEngine(t, invoices), invoices, results, nil).
		ValidateBatch(context.Background(), []*invoice.Record{
			invoice.NewRecord(validFields("INV-1")),
			invoice.NewRecord(missing),
		}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Summary.TotalInvoices)

	invoices.AssertNumberOfCalls(t, "Save", 2)
	results.AssertNumberOfCalls(t, "Create", 1)
}

func TestValidateBatch_StoreFailureDoesNotFailBatch(t *testing.T) {
	invoices := new(mocks.MockInvoiceRepo)
	invoices.On("Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	invoices.On("Save", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))
	results := new(mocks.MockValidationResultRepo)

	rep, err := service.NewValidationService(newEngine(t, invoices), invoices, results, nil).
		ValidateBatch(context.Background(), []*invoice.Record{invoice.NewRecord(validFields("INV-1"))}, true)
	require.NoError(t, err)
	assert.True(t, rep.Results[0].IsValid)
	results.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestValidateBatch_NilRecord(t *testing.T) {
	svc := service.NewValidationService(newEngine(t, port.NoDuplicates{}), nil, nil, nil)
	_, err := svc.ValidateBatch(context.Background(), []*invoice.Record{nil}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestValidateBatch_Empty(t *testing.T) {
	svc := service.NewValidationService(newEngine(t, port.NoDuplicates{}), nil, nil, nil)
	rep, err := svc.ValidateBatch(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Summary.TotalInvoices)
	assert.Empty(t, rep.Results)
}

func TestValidateBatch_Archive(t *testing.T) {
	arch := &fakeArchiver{}
	svc := service.NewValidationService(newEngine(t, port.NoDuplicates{}), nil, nil, arch)
	_, err := svc.ValidateBatch(context.Background(), []*invoice.Record{invoice.NewRecord(validFields("INV-1"))}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, arch.calls)

	arch.err = errors.New("s3 down")
	_, err = svc.ValidateBatch(context.Background(), []*invoice.Record{invoice.NewRecord(validFields("INV-1"))}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, arch.calls)
}

// --- ExtractionService ---

type fakeExtractor struct {
	byName map[string]map[string]any
}

func (f *fakeExtractor) ExtractBytes(_ context.Context, name string, _ []byte) map[string]any {
	if fields, ok := f.byName[name]; ok {
		return fields
	}
	return invoice.EmptyFields(name)
}

func (f *fakeExtractor) ExtractDir(_ context.Context, _ string) ([]map[string]any, error) {
	return nil, nil
}

func TestExtractAndValidate(t *testing.T) {
	good := validFields("INV-9")
	good["source_file"] = "good.pdf"
	ext := &fakeExtractor{byName: map[string]map[string]any{"good.pdf": good}}
	svc := service.NewExtractionService(ext, newEngine(t, port.NoDuplicates{}), 2)

	out, err := svc.ExtractAndValidate(context.Background(), []service.UploadedFile{
		{Name: "good.pdf", Data: []byte("%PDF")},
		{Name: "notes.txt", Data: []byte("hello")},
		{Name: "SCAN.PDF", Data: []byte("%PDF")},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, out.TotalFiles)
	require.Len(t, out.Results, 2)

	assert.Equal(t, "good.pdf", out.Results[0].Filename)
	assert.Equal(t, "good.pdf", out.Results[0].ExtractedData["filename"])
	assert.Equal(t, "INV-9", out.Results[0].Validation.InvoiceID)
	assert.True(t, out.Results[0].Validation.IsValid)

	assert.Equal(t, "SCAN.PDF", out.Results[1].Filename)
	assert.Equal(t, "UNKNOWN_SCAN.PDF", out.Results[1].Validation.InvoiceID)
	assert.False(t, out.Results[1].Validation.IsValid)

	assert.Equal(t, 2, out.Summary.TotalInvoices)
	assert.Equal(t, 1, out.Summary.ValidInvoices)
	assert.Equal(t, 1, out.Summary.InvalidInvoices)
}

func TestExtractAndValidate_NoPDFs(t *testing.T) {
	svc := service.NewExtractionService(&fakeExtractor{}, newEngine(t, port.NoDuplicates{}), 0)
	out, err := svc.ExtractAndValidate(context.Background(), []service.UploadedFile{{Name: "a.docx"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalFiles)
	assert.Empty(t, out.Results)
	assert.Equal(t, 0, out.Summary.TotalInvoices)
}

// --- InvoiceService ---

func TestInvoiceService_ListClampsPaging(t *testing.T) {
	invoices := new(mocks.MockInvoiceRepo)
	invoices.On("List", mock.Anything, 0, service.DefaultListLimit).Return([]domain.StoredInvoice{{ID: 1}}, 1, nil)
	invoices.On("List", mock.Anything, 10, service.MaxListLimit).Return([]domain.StoredInvoice{}, 1, nil)
	svc := service.NewInvoiceService(invoices, new(mocks.MockValidationResultRepo))

	got, total, err := svc.List(context.Background(), -5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, got, 1)

	_, _, err = svc.List(context.Background(), 10, 5000)
	require.NoError(t, err)
	invoices.AssertExpectations(t)
}

func TestInvoiceService_ListValidations(t *testing.T) {
	invoices := new(mocks.MockInvoiceRepo)
	results := new(mocks.MockValidationResultRepo)
	invoices.On("GetByID", mock.Anything, int64(3)).Return(&domain.StoredInvoice{ID: 3}, nil)
	invoices.On("GetByID", mock.Anything, int64(4)).Return(nil, domain.ErrInvoiceNotFound)
	results.On("ListByInvoice", mock.Anything, int64(3)).Return([]domain.StoredValidationResult{{ID: 1, InvoiceID: 3}}, nil)
	svc := service.NewInvoiceService(invoices, results)

	got, err := svc.ListValidations(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ListValidations(context.Background(), 4)
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	results.AssertNotCalled(t, "ListByInvoice", mock.Anything, int64(4))
}
