package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Run("normalizes case", func(t *testing.T) {
		a, err := domain.ParseAddress("0xABCDEF0123456789abcdef0123456789ABCDEF01")
		require.NoError(t, err)
		require.Equal(t, domain.Address("0xabcdef0123456789abcdef0123456789abcdef01"), a)
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := domain.ParseAddress("abcdef0123456789abcdef0123456789abcdef01")
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := domain.ParseAddress("0x1234")
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects non hex", func(t *testing.T) {
		_, err := domain.ParseAddress("0xzzcdef0123456789abcdef0123456789abcdef01")
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestValidateNameAndDescription(t *testing.T) {
	require.NoError(t, domain.ValidateName("Tool X"))
	require.ErrorIs(t, domain.ValidateName("X"), domain.ErrValidation)
	require.ErrorIs(t, domain.ValidateName(strings.Repeat("a", 51)), domain.ErrValidation)

	require.NoError(t, domain.ValidateDescription("does useful things"))
	require.ErrorIs(t, domain.ValidateDescription("too short"), domain.ErrValidation)
	require.ErrorIs(t, domain.ValidateDescription(strings.Repeat("d", 501)), domain.ErrValidation)
}

func TestValidateRedirectURIs(t *testing.T) {
	require.NoError(t, domain.ValidateRedirectURIs([]string{"https://app.example.com/cb", "http://localhost:3000/cb"}))
	require.NoError(t, domain.ValidateRedirectURIs(nil))

	err := domain.ValidateRedirectURIs([]string{"https://ok.example.com", "/relative"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "redirect_uris", verr.Field)

	require.Error(t, domain.ValidateRedirectURIs([]string{"ftp://files.example.com"}))
}

func TestNormalizeDelegatees(t *testing.T) {
	a := "0x1111111111111111111111111111111111111111"
	b := "0x2222222222222222222222222222222222222222"

	out, err := domain.NormalizeDelegatees([]string{a, b})
	require.NoError(t, err)
	require.Len(t, out, 2)

	_, err = domain.NormalizeDelegatees([]string{a, strings.ToUpper(a[:2]) + a[2:]})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.NormalizeDelegatees([]string{string(domain.ZeroAddress)})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateToolArrays(t *testing.T) {
	t.Run("one tool one policy two params", func(t *testing.T) {
		err := domain.ValidateToolArrays(
			[]string{"QmTool"},
			[][]string{{"QmPolicy"}},
			[][][]string{{{"maxAmount", "token"}}},
		)
		require.NoError(t, err)
	})

	t.Run("outer length mismatch", func(t *testing.T) {
		err := domain.ValidateToolArrays(
			[]string{"QmTool", "QmOther"},
			[][]string{{"QmPolicy"}},
			[][][]string{{{"a"}}},
		)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("policy and parameter list mismatch", func(t *testing.T) {
		err := domain.ValidateToolArrays(
			[]string{"QmTool"},
			[][]string{{"QmPolicy", "QmPolicy2"}},
			[][][]string{{{"a"}}},
		)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("duplicate tool", func(t *testing.T) {
		err := domain.ValidateToolArrays(
			[]string{"QmTool", "QmTool"},
			[][]string{{}, {}},
			[][][]string{{}, {}},
		)
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestToolArraysRoundTrip(t *testing.T) {
	cids := []string{"QmA", "QmB"}
	policies := [][]string{{"QmP1"}, {}}
	params := [][][]string{{{"x", "y"}}, {}}

	tools := domain.ToolsFromArrays(cids, policies, params)
	require.Len(t, tools, 2)
	require.Equal(t, []string{"x", "y"}, tools[0].Policies[0].ParameterNames)

	c2, p2, n2 := domain.ToolArrays(tools)
	require.Equal(t, cids, c2)
	require.Equal(t, policies, p2)
	require.Equal(t, params, n2)
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &domain.LedgerError{Op: "addDelegatee", Reason: "NotAppManager"}
	require.ErrorIs(t, err, domain.ErrLedger)
	require.Contains(t, err.Error(), "NotAppManager")

	err = &domain.AuthorizationError{Op: "addDelegatee", AppID: 3, Reason: "NotAppManager", Err: err}
	require.ErrorIs(t, err, domain.ErrAuthorization)
	require.ErrorIs(t, err, domain.ErrLedger)

	err = &domain.SigningError{Err: errors.New("service unavailable")}
	require.ErrorIs(t, err, domain.ErrSigning)

	err = &domain.NotFoundError{What: "credential"}
	require.ErrorIs(t, err, domain.ErrNotFound)
}
