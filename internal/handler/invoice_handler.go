package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoiceqc/internal/service"
)

// InvoiceHandler serves stored invoices and their validation history.
type InvoiceHandler struct {
	invoices service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoices service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultListLimit)))

	invoices, total, err := h.invoices.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := h.invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// ListValidations handles GET /invoices/:id/validations
func (h *InvoiceHandler) ListValidations(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	results, err := h.invoices.ListValidations(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, results)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return 0, false
	}
	return id, true
}
