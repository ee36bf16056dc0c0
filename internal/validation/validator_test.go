package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florilegium/florilegium-server/internal/domain"
	domainerrors "github.com/florilegium/florilegium-server/internal/errors"
)

func TestValidateGenreOverride(t *testing.T) {
	v := New()

	valid := domain.GenreOverride{Title: "Dune", Genre: "Science Fiction"}
	assert.NoError(t, v.Validate(valid))

	missing := domain.GenreOverride{Title: "Dune"}
	err := v.Validate(missing)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestValidateOverrideRule(t *testing.T) {
	v := New()

	valid := domain.OverrideRule{
		Title:  "Dune",
		Fields: map[string]any{"Read Count": 2},
	}
	assert.NoError(t, v.Validate(valid))

	emptyFields := domain.OverrideRule{Title: "Dune", Fields: map[string]any{}}
	assert.Error(t, v.Validate(emptyFields))

	noTitle := domain.OverrideRule{Fields: map[string]any{"Genre": "Fantasy"}}
	assert.Error(t, v.Validate(noTitle))
}

func TestValidateSlice(t *testing.T) {
	v := New()

	rules := []domain.ManualGenreEntry{
		{Title: "Dune", Genre: "Science Fiction"},
		{Title: "", Genre: "Fantasy"}, // invalid
		{Title: "Circe", Genre: ""},   // invalid
	}
	err := v.ValidateSlice(rules)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	details, ok := derr.Details.(map[string]string)
	require.True(t, ok)
	assert.Len(t, details, 2)
	assert.Contains(t, details, "[1].title")
	assert.Contains(t, details, "[2].genre")
}

func TestValidateSliceAllValid(t *testing.T) {
	v := New()
	rules := []domain.ManualGenreEntry{
		{Title: "Dune", Genre: "Science Fiction"},
	}
	assert.NoError(t, v.ValidateSlice(rules))
}

func TestValidateSliceNotASlice(t *testing.T) {
	v := New()
	assert.Error(t, v.ValidateSlice("not a slice"))
}
