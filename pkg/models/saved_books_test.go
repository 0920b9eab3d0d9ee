package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedBooks_Value(t *testing.T) {
	t.Parallel()

	t.Run("nil document stores an empty object", func(t *testing.T) {
		t.Parallel()
		var s SavedBooks
		v, err := s.Value()
		require.NoError(t, err)
		assert.Equal(t, "{}", v)
	})

	t.Run("encodes tabs", func(t *testing.T) {
		t.Parallel()
		s := SavedBooks{"favorites": {1, 2}}
		v, err := s.Value()
		require.NoError(t, err)
		assert.JSONEq(t, `{"favorites":[1,2]}`, v.(string))
	})
}

func TestSavedBooks_Scan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  any
		want SavedBooks
	}{
		{"null", nil, SavedBooks{}},
		{"empty string", "", SavedBooks{}},
		{"bytes", []byte(`{"later":[3]}`), SavedBooks{"later": {3}}},
		{"null list", `{"later":null}`, SavedBooks{"later": {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var s SavedBooks
			require.NoError(t, s.Scan(tt.src))
			assert.Equal(t, tt.want, s)
		})
	}

	t.Run("rejects malformed json", func(t *testing.T) {
		t.Parallel()
		var s SavedBooks
		assert.Error(t, s.Scan(`{"later":`))
	})

	t.Run("rejects unknown source types", func(t *testing.T) {
		t.Parallel()
		var s SavedBooks
		assert.Error(t, s.Scan(42))
	})
}

func TestSavedBooks_Tabs(t *testing.T) {
	t.Parallel()

	s := SavedBooks{}
	require.NoError(t, s.CreateTab("read"))
	assert.ErrorIs(t, s.CreateTab("read"), ErrTabExists)
	assert.Equal(t, []int{}, s["read"])

	assert.True(t, s.AddBook("read", 7))
	assert.False(t, s.AddBook("read", 7))
	assert.Equal(t, []int{7}, s["read"])

	// Adding to a missing tab creates it.
	assert.True(t, s.AddBook("later", 9))
	assert.Equal(t, []int{9}, s["later"])

	changed, err := s.RemoveBook("read", 8)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.RemoveBook("read", 7)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{}, s["read"])

	_, err = s.RemoveBook("missing", 7)
	assert.ErrorIs(t, err, ErrTabNotFound)

	require.NoError(t, s.DeleteTab("later"))
	assert.ErrorIs(t, s.DeleteTab("later"), ErrTabNotFound)
	assert.False(t, s.HasTab("later"))
}

func TestSavedBooks_Clone(t *testing.T) {
	t.Parallel()

	s := SavedBooks{"read": {1}}
	c := s.Clone()
	c.AddBook("read", 2)
	assert.Equal(t, []int{1}, s["read"])
	assert.Equal(t, []int{1, 2}, c["read"])
}

func TestCapitalizeTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Sci-fi", CapitalizeTitle("sCI-FI"))
	assert.Equal(t, "Émigré", CapitalizeTitle("  émigré "))
	assert.Equal(t, "", CapitalizeTitle("   "))
}

func TestBlobKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "books/3/cover", (&Book{ID: 3}).CoverKey())
	ch := &Chapter{BookID: 3, Number: 12}
	assert.Equal(t, "books/3/12/text.txt", ch.TextKey())
	assert.Equal(t, "books/3/12/audio.mp3", ch.AudioKey())
	assert.Equal(t, "books/3/12", ch.Prefix())
}
