package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeeRecalculate(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	cases := []struct {
		name   string
		total  float64
		paid   float64
		due    time.Time
		status string
	}{
		{"untouched before due date", 500, 0, future, FeeStatusPending},
		{"untouched past due date", 500, 0, past, FeeStatusOverdue},
		{"partially paid", 500, 200, future, FeeStatusPartial},
		{"partially paid past due still partial", 500, 200, past, FeeStatusPartial},
		{"exactly settled", 500, 500, future, FeeStatusPaid},
		{"overpaid still settled", 500, 600, past, FeeStatusPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee := Fee{TotalAmount: tc.total, PaidAmount: tc.paid, DueDate: tc.due}
			fee.Recalculate(now)

			require.Equal(t, tc.status, fee.Status)
			require.Equal(t, tc.total-tc.paid, fee.Balance)
		})
	}
}

func TestFeeHasReceipt(t *testing.T) {
	fee := Fee{Payments: []Payment{
		{ReceiptNumber: "RCPT-1"},
		{ReceiptNumber: "RCPT-2"},
	}}

	require.True(t, fee.HasReceipt("RCPT-2"))
	require.False(t, fee.HasReceipt("RCPT-3"))
	require.False(t, fee.HasReceipt(""))
}

func TestFeeLastPayment(t *testing.T) {
	var empty Fee
	require.Nil(t, empty.LastPayment())

	fee := Fee{Payments: []Payment{
		{ReceiptNumber: "RCPT-1"},
		{ReceiptNumber: "RCPT-2"},
	}}

	last := fee.LastPayment()
	require.NotNil(t, last)
	require.Equal(t, "RCPT-2", last.ReceiptNumber)
}
