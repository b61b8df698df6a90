package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	at := time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)
	require.Equal(t, "INV-202602-0001", formatInvoiceNumber(at, 1))
	require.Equal(t, "INV-202602-0042", formatInvoiceNumber(at, 42))
	require.Equal(t, "INV-202602-9999", formatInvoiceNumber(at, 9999))
	require.Equal(t, "INV-202602-10000", formatInvoiceNumber(at, 10000))
}

func TestInvoiceLockKeyPerMonth(t *testing.T) {
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "invoice:202602", invoiceLockKey(feb))
	require.NotEqual(t, invoiceLockKey(feb), invoiceLockKey(mar))
}
