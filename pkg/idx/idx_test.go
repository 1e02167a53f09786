package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/delegate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	// Session ids travel in URLs and sometimes come back lowercased.
	parsed, err = idx.Parse(strings.ToLower(id.String()))
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, s)
	}
}

func TestMonotonicWithinSameMillisecond(t *testing.T) {
	tm := time.Unix(1_700_000_000, 0)
	a := idx.NewAt(tm)
	b := idx.NewAt(tm)
	require.Less(t, a.String(), b.String())
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	require.WithinDuration(t, tm, idx.NewAt(tm).Time(), time.Millisecond)
	require.True(t, idx.ID("nope").Time().IsZero())
}

func TestMustParse(t *testing.T) {
	require.NotPanics(t, func() { idx.MustParse("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV") })
	require.Panics(t, func() { idx.MustParse("bad") })
}
