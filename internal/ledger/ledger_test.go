package ledger_test

import (
	"testing"

	"github.com/aussiebroadwan/delegate/internal/ledger"
	"github.com/stretchr/testify/require"
)

func TestReceiptEvent(t *testing.T) {
	r := &ledger.Receipt{Events: []ledger.Event{
		{Name: ledger.EventDelegateeAdded},
		{Name: ledger.EventAppRegistered, Fields: map[string]any{"appId": "1"}},
	}}

	e, ok := r.Event(ledger.EventAppRegistered)
	require.True(t, ok)
	require.Equal(t, "1", e.Fields["appId"])

	_, ok = r.Event(ledger.EventAppEnabled)
	require.False(t, ok)

	var nilReceipt *ledger.Receipt
	_, ok = nilReceipt.Event(ledger.EventAppRegistered)
	require.False(t, ok)
}
