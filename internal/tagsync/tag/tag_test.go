package tag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.True(t, verr.Empty)
}

func TestNewRejectsInvalidCharacters(t *testing.T) {
	_, err := New("foo#bar@baz")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.False(t, verr.Empty)
	require.Equal(t, []int{3, 7}, verr.Positions)
}

func TestNewAcceptsAllowedPunctuation(t *testing.T) {
	for _, s := range []string{"foo-bar", "foo.bar", "foo's", "foo bar", "foo_bar", "café", "naïve–ish"} {
		_, err := New(s)
		require.NoError(t, err, "tag %q should be valid", s)
	}
}

func TestMustNewPanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() { MustNew("") })
}
