package sales

import (
	"fmt"
	"time"
)

const invoicePrefix = "INV"

// invoiceMonthKey identifies the per-month invoice sequence, e.g. "202608".
func invoiceMonthKey(t time.Time) string {
	return t.Format("200601")
}

// formatInvoiceNumber renders INV-YYYYMM-NNNN. The sequence is padded
// to four digits but keeps growing past 9999 without truncation.
func formatInvoiceNumber(t time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", invoicePrefix, invoiceMonthKey(t), seq)
}

// invoiceLockKey names the advisory lock serialising invoice assignment
// for the given month.
func invoiceLockKey(t time.Time) string {
	return "invoice:" + invoiceMonthKey(t)
}
