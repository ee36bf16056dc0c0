package override

import (
	"encoding/json/v2"
	"os"

	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/errors"
	"github.com/florilegium/florilegium-server/internal/validation"
)

// On-disk shapes of the two rule documents.
type fieldOverridesFile struct {
	BookOverrides struct {
		Overrides []domain.OverrideRule `json:"overrides"`
	} `json:"book_overrides"`
}

type genreOverridesFile struct {
	BookGenreOverrides struct {
		Overrides []domain.GenreOverride `json:"overrides"`
	} `json:"book_genre_overrides"`
}

// LoadFieldOverrides reads the field-override rule document. A missing
// file means no rules, not an error.
func LoadFieldOverrides(path string, v *validation.Validator) ([]domain.OverrideRule, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "read overrides %s", path)
	}

	var file fieldOverridesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, errors.CodeValidation, "parse overrides %s", path)
	}

	rules := file.BookOverrides.Overrides
	if err := v.ValidateSlice(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadGenreOverrides reads the genre-only rule document. A missing file
// means no rules, not an error.
func LoadGenreOverrides(path string, v *validation.Validator) ([]domain.GenreOverride, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "read genre overrides %s", path)
	}

	var file genreOverridesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, errors.CodeValidation, "parse genre overrides %s", path)
	}

	rules := file.BookGenreOverrides.Overrides
	if err := v.ValidateSlice(rules); err != nil {
		return nil, err
	}
	return rules, nil
}
