// Package version turns dataset version labels into comparable weights.
package version

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pcmdi/climwrangle/internal/models"
)

// Latest is the label used by the legacy archive for the newest copy. It
// maps to the lowest weight, so a dated version always outranks it.
const Latest = "latest"

// OrdinalScale rescales small ordinal versions (v1, v2, ...). The result
// outranks every 8-digit date version while keeping ordinals in order.
const OrdinalScale = 100_000_000

// Weight returns the recency weight of a version label; larger is newer.
// "20190829" and "v20190829" weigh 20190829, "v1" weighs 100000000 and
// "latest" weighs 0.
func Weight(label string) (int64, error) {
	if label == Latest {
		return 0, nil
	}

	digits := strings.TrimLeftFunc(label, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if digits == "" {
		return 0, &models.FormatError{Label: label}
	}

	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &models.FormatError{Label: label, Err: err}
	}

	if v < 10 {
		v *= OrdinalScale
	}
	return v, nil
}
