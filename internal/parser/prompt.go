package parser

// BuildInvoicePrompt returns the extraction prompt with the document text embedded.
func BuildInvoicePrompt(text string) string {
	return `You are an expert invoice data extraction system. Extract structured data from this document.

Document text:
` + text + `

Extract and return ONLY a valid JSON object with these exact fields:
{
    "invoice_number": "the invoice or purchase order number",
    "invoice_date": "date in YYYY-MM-DD format",
    "due_date": "due date in YYYY-MM-DD format or null if not found",
    "seller_name": "seller/supplier company name",
    "seller_address": "seller address or null if not found",
    "seller_tax_id": "seller tax/VAT ID or null if not found",
    "buyer_name": "buyer/customer company name",
    "buyer_address": "buyer address or null if not found",
    "buyer_tax_id": "buyer tax/VAT ID or null if not found",
    "currency": "currency code like EUR, USD, GBP, INR",
    "net_total": "net/subtotal amount as a number without currency symbol",
    "tax_rate": "tax rate percentage as number or null if not found",
    "tax_amount": "tax amount as a number",
    "gross_total": "gross/total amount including tax as a number",
    "line_items": [{"description": "", "quantity": 0, "unit_price": 0, "line_total": 0}]
}

RULES:
1. Return ONLY the JSON object. No markdown, no code fences, no explanation.
2. Use null (not "null", not "N/A", not an empty string) for missing fields.
3. Convert ALL dates to YYYY-MM-DD format regardless of source format.
4. Convert ALL amounts to plain numbers (remove currency symbols, spaces and thousands separators; 1.234,56 becomes 1234.56).
5. For German "Bestellung" (purchase order) documents use the AUFNR number as invoice_number.
6. Identify currency from symbols: € = EUR, $ = USD, £ = GBP, ₹ = INR.
7. If multiple companies appear, the seller is the supplier and the buyer is the customer.
8. Use an empty line_items array when no line items are listed.

Return the JSON now:`
}
