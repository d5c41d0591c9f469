package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoiceqc/internal/port"
	"invoiceqc/internal/report"
	"invoiceqc/internal/validator"
	"invoiceqc/mocks"
)

func sampleReport() *validator.BatchReport {
	results := []*validator.Result{
		{InvoiceID: "INV-1", IsValid: true, Errors: []string{}, Warnings: []string{"Due date is in the past"}},
		{
			InvoiceID: "INV-2",
			IsValid:   false,
			Errors:    []string{"Missing required field: seller_name", "Invalid currency code: XXX"},
			Warnings:  []string{},
		},
		{InvoiceID: "UNKNOWN_c.pdf", IsValid: false, Errors: []string{"Missing required field: seller_name"}, Warnings: []string{}},
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &validator.BatchReport{Summary: validator.Summarize(results, at), Results: results}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]report.Format{"": report.FormatJSON, "JSON": report.FormatJSON, " csv ": report.FormatCSV, "xlsx": report.FormatXLSX} {
		got, err := report.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := report.ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.FormatJSON, sampleReport()))

	var decoded struct {
		Summary struct {
			TotalInvoices   int            `json:"total_invoices"`
			ValidInvoices   int            `json:"valid_invoices"`
			InvalidInvoices int            `json:"invalid_invoices"`
			ErrorCounts     map[string]int `json:"error_counts"`
		} `json:"summary"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded.Summary.TotalInvoices)
	assert.Equal(t, 1, decoded.Summary.ValidInvoices)
	assert.Equal(t, 2, decoded.Summary.InvalidInvoices)
	assert.Equal(t, 2, decoded.Summary.ErrorCounts["Missing required field: seller_name"])
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, "INV-2", decoded.Results[1]["invoice_id"])
	assert.Contains(t, buf.String(), "\n  \"summary\"")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.FormatCSV, sampleReport()))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, report.BOM))

	rows, err := csv.NewReader(bytes.NewReader(data[len(report.BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"invoice_id", "is_valid", "error_count", "warning_count", "errors", "warnings"}, rows[0])
	assert.Equal(t, []string{"INV-1", "true", "0", "1", "", "Due date is in the past"}, rows[1])
	assert.Equal(t, "2", rows[2][2])
	assert.Equal(t, "Missing required field: seller_name; Invalid currency code: XXX", rows[2][4])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	rep := &validator.BatchReport{Summary: validator.Summarize(nil, time.Now())}
	require.NoError(t, report.WriteCSV(&buf, rep))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(report.BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.FormatXLSX, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Results", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "invoice_id", rows[0][0])
	assert.Equal(t, "INV-2", rows[2][0])
	assert.Equal(t, "false", rows[2][1])
	assert.Equal(t, "2", rows[2][2])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"total_invoices", "3"}, summary[0])
	assert.Equal(t, []string{"validation_rate", "33.3%"}, summary[3])
	assert.Equal(t, []string{"error", "count"}, summary[5])
	assert.Equal(t, []string{"Missing required field: seller_name", "2"}, summary[6])
	assert.Equal(t, []string{"Invalid currency code: XXX", "1"}, summary[7])
}

func TestBuildFilename(t *testing.T) {
	at := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Q1_invoices_2024-03-09.csv", report.BuildFilename("Q1 invoices!!", report.FormatCSV, at))
	assert.Equal(t, "validation_report_2024-03-09.xlsx", report.BuildFilename("???", report.FormatXLSX, at))
	assert.Equal(t, "text/csv; charset=utf-8", report.FormatCSV.ContentType())
}

func TestArchiver_Archive(t *testing.T) {
	store := new(mocks.MockObjectStorage)
	keyPattern := regexp.MustCompile(`^reports/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.json$`)

	var uploaded []byte
	store.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "qc" && keyPattern.MatchString(in.Key) && in.ContentType == "application/json"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(port.UploadInput)
		uploaded, _ = io.ReadAll(in.Body)
	}).Return(&port.UploadOutput{Location: "s3://qc/x"}, nil)
	store.On("GetPresignedURL", mock.Anything, "qc", mock.AnythingOfType("string"), int64(600)).
		Return("https://signed.example/report", nil)

	a := report.NewArchiver(store, "qc", "reports", 600)
	res, err := a.Archive(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, res.Key)
	assert.Equal(t, "https://signed.example/report", res.URL)
	assert.Contains(t, string(uploaded), `"invoice_id": "INV-2"`)
	store.AssertExpectations(t)
}

func TestArchiver_UploadError(t *testing.T) {
	store := new(mocks.MockObjectStorage)
	store.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	a := report.NewArchiver(store, "qc", "", 0)
	_, err := a.Archive(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading report")
	store.AssertNotCalled(t, "GetPresignedURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiver_Key(t *testing.T) {
	a := report.NewArchiver(new(mocks.MockObjectStorage), "b", "qc/reports", 0)
	key := a.Key(time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC), uuid.Nil)
	assert.Equal(t, "qc/reports/2024/01/02/00000000-0000-0000-0000-000000000000.json", key)
}
