package wordbank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seq returns the given values in order, modulo n
type seq struct {
	vals []int
	i    int
}

func (s *seq) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

func TestDefault_HasBuiltinCategories(t *testing.T) {
	b, err := Default(&seq{vals: []int{0}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Animals", "Countries", "Food", "Professions"}, b.Categories())
	assert.True(t, b.HasCategory("Animals"))
	assert.False(t, b.HasCategory("animals"))

	for _, name := range b.Categories() {
		assert.Len(t, b.categories[name], 8, name)
	}
}

func TestPickRandomEntry_Deterministic(t *testing.T) {
	b, err := Default(&seq{vals: []int{2, 1}})
	require.NoError(t, err)

	p, err := b.PickRandomEntry("Animals")
	require.NoError(t, err)
	assert.Equal(t, Pick{Word: "Giraffe", Hint: "Long neck"}, p)
}

func TestPickRandomEntry_UnknownCategory(t *testing.T) {
	b, err := Default(&seq{vals: []int{0}})
	require.NoError(t, err)

	_, err = b.PickRandomEntry("Planets")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestPickRandomEntry_Weighted(t *testing.T) {
	b, err := New(map[string][]Entry{
		"Test": {
			{Word: "rare", Hints: []string{"r"}},
			{Word: "common", Hints: []string{"c"}, Weight: 3},
		},
	}, &seq{vals: []int{0, 0, 1, 0, 3, 0}})
	require.NoError(t, err)

	var got []string
	for i := 0; i < 3; i++ {
		p, err := b.PickRandomEntry("Test")
		require.NoError(t, err)
		got = append(got, p.Word)
	}
	assert.Equal(t, []string{"rare", "common", "common"}, got)
}

func TestLoad_DropsUnusableEntries(t *testing.T) {
	in := `{
		"Good": [{"word": "A", "hints": ["a"]}, {"word": "", "hints": ["x"]}],
		"Empty": [{"word": "B", "hints": []}]
	}`
	b, err := Load(strings.NewReader(in), &seq{vals: []int{0}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Good"}, b.Categories())
	assert.Len(t, b.categories["Good"], 1)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(strings.NewReader(`not json`), &seq{vals: []int{0}})
	assert.Error(t, err)

	_, err = Load(strings.NewReader(`{}`), &seq{vals: []int{0}})
	assert.Error(t, err)

	_, err = New(nil, nil)
	assert.Error(t, err)
}
