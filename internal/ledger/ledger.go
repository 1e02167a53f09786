// Package ledger defines the contract surface of the application registry
// ledger. Values crossing it are untyped, ABI style: integers are *big.Int,
// addresses are strings and tuples are []any. Callers decode them strictly.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/delegate/internal/domain"
)

// Registry method names.
const (
	MethodRegisterApp            = "registerApp"
	MethodRegisterNextAppVersion = "registerNextAppVersion"
	MethodAddDelegatee           = "addDelegatee"
	MethodRemoveDelegatee        = "removeDelegatee"
	MethodEnableAppVersion       = "enableAppVersion"
	MethodPermitAppVersion       = "permitAppVersion"

	MethodGetAppsByManager = "getAppsByManager"
	MethodGetAppByID       = "getAppById"
	MethodGetAppVersion    = "getAppVersion"
)

// Event names emitted in receipts.
const (
	EventAppRegistered        = "AppRegistered"
	EventAppVersionRegistered = "AppVersionRegistered"
	EventDelegateeAdded       = "DelegateeAdded"
	EventDelegateeRemoved     = "DelegateeRemoved"
	EventAppEnabled           = "AppEnabled"
	EventAppVersionPermitted  = "AppVersionPermitted"
)

// ErrWaitAborted is returned when the caller stops waiting for finality. The
// transaction itself stays pending on the ledger.
var ErrWaitAborted = errors.New("ledger: wait aborted")

// Contract is the write and read surface of the registry.
type Contract interface {
	// Transact submits a write and returns as soon as it is queued.
	Transact(ctx context.Context, from domain.Address, method string, args ...any) (PendingTx, error)

	// Query runs a read against current state.
	Query(ctx context.Context, method string, args ...any) ([]any, error)
}

// PendingTx is a submitted transaction.
type PendingTx interface {
	Hash() string

	// Wait blocks until the transaction is final. A reverted transaction
	// yields a *RevertError. Cancelling ctx yields ErrWaitAborted.
	Wait(ctx context.Context) (*Receipt, error)
}

// Receipt describes a final, successful transaction.
type Receipt struct {
	TxHash string  `json:"tx_hash"`
	Block  uint64  `json:"block"`
	Events []Event `json:"events,omitempty"`
}

// Event is a log entry emitted by a transaction.
type Event struct {
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields"`
}

// Event returns the first event called name.
func (r *Receipt) Event(name string) (Event, bool) {
	if r == nil {
		return Event{}, false
	}
	for _, e := range r.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

// RevertError is a transaction the ledger rejected.
type RevertError struct {
	TxHash string
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("ledger: tx %s reverted: %s", e.TxHash, e.Reason)
}
