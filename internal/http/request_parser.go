package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"deputados/internal/core"
	"deputados/internal/log"
)

var errMissingParam = errors.New("missing required parameter")

// parseDeputyID reads the {id} path segment.
func parseDeputyID(r *http.Request, op string) (int, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, core.ValidationError(op, fmt.Errorf("%w: %q", core.ErrInvalidDeputyID, raw))
	}
	return id, nil
}

// requiredInt reads an integer query parameter. An absent or blank value is
// errMissingParam; a non-numeric one is a validation error.
func requiredInt(q url.Values, key, op string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, core.ValidationError(op, fmt.Errorf("%w: %s", errMissingParam, key))
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.ValidationError(op, fmt.Errorf("parameter %s=%q is not a number", key, raw))
	}
	return n, nil
}

// optionalInt is requiredInt with a default for absent values.
func optionalInt(q url.Values, key string, def int, op string) (int, error) {
	if strings.TrimSpace(q.Get(key)) == "" {
		return def, nil
	}
	return requiredInt(q, key, op)
}

// expenseParams validates the monthly expense request before anything is
// sent upstream. A missing parameter is reported ahead of a malformed one.
func expenseParams(r *http.Request) (id, year, month int, err error) {
	q := r.URL.Query()
	year, yearErr := requiredInt(q, "ano", log.OpExpenses)
	month, monthErr := requiredInt(q, "mes", log.OpExpenses)
	if errors.Is(yearErr, errMissingParam) {
		return 0, 0, 0, yearErr
	}
	if errors.Is(monthErr, errMissingParam) {
		return 0, 0, 0, monthErr
	}
	if id, err = parseDeputyID(r, log.OpExpenses); err != nil {
		return 0, 0, 0, err
	}
	switch {
	case yearErr != nil:
		return 0, 0, 0, yearErr
	case monthErr != nil:
		return 0, 0, 0, monthErr
	}
	return id, year, month, nil
}

func isMissingParam(err error) bool {
	return errors.Is(err, errMissingParam)
}
