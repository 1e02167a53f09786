package simledger

import (
	"math/big"

	"github.com/aussiebroadwan/delegate/internal/domain"
)

// Revert reasons.
const (
	ReasonAppNotRegistered               = "AppNotRegistered"
	ReasonNotAppManager                  = "NotAppManager"
	ReasonDelegateeAlreadyRegistered     = "DelegateeAlreadyRegistered"
	ReasonDelegateeNotRegistered         = "DelegateeNotRegistered"
	ReasonAppVersionNotRegistered        = "AppVersionNotRegistered"
	ReasonAppVersionNotEnabled           = "AppVersionNotEnabled"
	ReasonToolsAndPoliciesLengthMismatch = "ToolsAndPoliciesLengthMismatch"
	ReasonInvalidArguments               = "InvalidArguments"
)

type revert struct{ reason string }

func (r *revert) Error() string { return "revert: " + r.reason }

func reverted(reason string) error { return &revert{reason: reason} }

var errInvalidArgs = reverted(ReasonInvalidArguments)

// args decodes positional call arguments the way the ABI would: anything
// that does not have the declared shape reverts with InvalidArguments.
type args []any

func (a args) want(n int) error {
	if len(a) != n {
		return errInvalidArgs
	}
	return nil
}

func (a args) uint(i int) (uint64, error) {
	switch v := a[i].(type) {
	case *big.Int:
		if v == nil || v.Sign() < 0 || !v.IsUint64() {
			return 0, errInvalidArgs
		}
		return v.Uint64(), nil
	case uint64:
		return v, nil
	default:
		return 0, errInvalidArgs
	}
}

func (a args) bigInt(i int) (*big.Int, error) {
	v, ok := a[i].(*big.Int)
	if !ok || v == nil || v.Sign() < 0 {
		return nil, errInvalidArgs
	}
	return new(big.Int).Set(v), nil
}

func (a args) bool(i int) (bool, error) {
	v, ok := a[i].(bool)
	if !ok {
		return false, errInvalidArgs
	}
	return v, nil
}

func (a args) string(i int) (string, error) {
	v, ok := a[i].(string)
	if !ok {
		return "", errInvalidArgs
	}
	return v, nil
}

func (a args) address(i int) (domain.Address, error) {
	s, err := a.string(i)
	if err != nil {
		return "", err
	}
	addr, err := domain.ParseAddress(s)
	if err != nil || addr.IsZero() {
		return "", errInvalidArgs
	}
	return addr, nil
}

func (a args) strings(i int) ([]string, error) { return asStrings(a[i]) }

func (a args) strings2(i int) ([][]string, error) {
	switch v := a[i].(type) {
	case [][]string:
		return v, nil
	case []any:
		out := make([][]string, len(v))
		for j, e := range v {
			s, err := asStrings(e)
			if err != nil {
				return nil, err
			}
			out[j] = s
		}
		return out, nil
	default:
		return nil, errInvalidArgs
	}
}

func (a args) strings3(i int) ([][][]string, error) {
	switch v := a[i].(type) {
	case [][][]string:
		return v, nil
	case []any:
		out := make([][][]string, len(v))
		for j, e := range v {
			inner, err := args{e}.strings2(0)
			if err != nil {
				return nil, err
			}
			out[j] = inner
		}
		return out, nil
	default:
		return nil, errInvalidArgs
	}
}

func asStrings(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, errInvalidArgs
			}
			out[i] = str
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, errInvalidArgs
	}
}
