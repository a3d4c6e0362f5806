package dataset

import (
	"strconv"
	"strings"

	"github.com/lox/crimelens/internal/apperr"
)

// ParsePage reads page and per_page query values. Absent values take the
// defaults; anything that is not a positive integer is a client error.
func ParsePage(rawPage, rawPerPage string) (page, perPage int, err error) {
	page, err = parsePositive("page", rawPage, DefaultPage)
	if err != nil {
		return 0, 0, err
	}
	perPage, err = parsePositive("per_page", rawPerPage, DefaultPerPage)
	if err != nil {
		return 0, 0, err
	}
	return page, perPage, nil
}

func parsePositive(field, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ClientInput(field, "%s must be an integer, got %q", field, raw)
	}
	if n < 1 {
		return 0, apperr.ClientInput(field, "%s must be positive, got %d", field, n)
	}
	return n, nil
}
