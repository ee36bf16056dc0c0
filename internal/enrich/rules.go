package enrich

import (
	"encoding/json/v2"
	"os"

	"github.com/florilegium/florilegium-server/internal/domain"
	"github.com/florilegium/florilegium-server/internal/errors"
	"github.com/florilegium/florilegium-server/internal/validation"
)

// manualGenresFile mirrors the on-disk shape of the manual lookup source.
type manualGenresFile struct {
	ManualGenreLookups struct {
		Books []domain.ManualGenreEntry `json:"books"`
	} `json:"manual_genre_lookups"`
}

// LoadManualGenres reads the manual genre lookup file. A missing file is
// not an error; the manual layer is optional.
func LoadManualGenres(path string, v *validation.Validator) ([]domain.ManualGenreEntry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "read manual genres %s", path)
	}

	var file manualGenresFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, errors.CodeValidation, "parse manual genres %s", path)
	}

	entries := file.ManualGenreLookups.Books
	if err := v.ValidateSlice(entries); err != nil {
		return nil, err
	}
	return entries, nil
}
