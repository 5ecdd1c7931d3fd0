package protocol

import "context"

// InvoiceRenderer renders the invoice PDF of an order and returns where it lives.
type InvoiceRenderer interface {
	Generate(ctx context.Context, accountID, orderID, templateID string) (pdfURL string, err error)
}
