// Package request parses analysis parameters from query strings and forms.
package request

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yumyai/roaryviz/pkg/model"
)

var ErrInvalidParam = errors.New("invalid parameter")

// Query keys
const (
	KeyCore         = "core"
	KeySoftcore     = "softcore"
	KeyShell        = "shell"
	KeyPattern      = "pattern"
	KeyPermutations = "permutations"
	KeySeed         = "seed"
	KeyRegions      = "regions"
)

func parseFloat(q url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidParam, key, raw)
	}
	return v, nil
}

// Thresholds overrides def with core, softcore and shell from q and validates
// the result.
func Thresholds(q url.Values, def model.Thresholds) (model.Thresholds, error) {

	var (
		t   model.Thresholds
		err error
	)
	if t.Core, err = parseFloat(q, KeyCore, def.Core); err != nil {
		return def, err
	}
	if t.Softcore, err = parseFloat(q, KeySoftcore, def.Softcore); err != nil {
		return def, err
	}
	if t.Shell, err = parseFloat(q, KeyShell, def.Shell); err != nil {
		return def, err
	}

	if err := t.Validate(); err != nil {
		return def, err
	}
	return t, nil
}

// Permutations reads the permutation count, def when absent. Values above max
// are rejected.
func Permutations(q url.Values, def, max int) (int, error) {
	raw := strings.TrimSpace(q.Get(KeyPermutations))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: permutations=%q is not an integer", ErrInvalidParam, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: got %d", model.ErrInvalidPermutations, n)
	}
	if max > 0 && n > max {
		return 0, fmt.Errorf("%w: %d exceeds the limit of %d", model.ErrInvalidPermutations, n, max)
	}
	return n, nil
}

// Seed reads an optional seed; ok is false when none was given.
func Seed(q url.Values) (seed int64, ok bool, err error) {
	raw := strings.TrimSpace(q.Get(KeySeed))
	if raw == "" {
		return 0, false, nil
	}
	seed, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: seed=%q is not an integer", ErrInvalidParam, raw)
	}
	return seed, true, nil
}

func Pattern(q url.Values) (model.Pattern, error) {
	return model.ParsePattern(q.Get(KeyPattern))
}

// Flag is true for 1, true, yes and on.
func Flag(q url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(q.Get(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
