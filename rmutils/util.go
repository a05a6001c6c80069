package rmutils

import (
	"fmt"
	"strconv"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

const (
	KiB uint64 = 1024
	MiB        = 1024 * KiB
	GiB        = 1024 * MiB
)

// ParseNumber decodes a hex literal (0x prefixed) or a decimal literal into an unsigned value.
func ParseNumber(text string) (uint64, error) {
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		v, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return 0, cerrors.Wrapf(err, "hex literal %q", text)
		}
		return v, nil
	}

	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, cerrors.Wrapf(err, "decimal literal %q", text)
	}
	return v, nil
}

// ParseSignedDecimal decodes a decimal literal that may carry a leading minus sign
func ParseSignedDecimal(text string) (int64, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, cerrors.Wrapf(err, "signed decimal literal %q", text)
	}
	return v, nil
}

// Hex renders a value the way the driver log does: lowercase, 0x prefixed, no padding
func Hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}

// FormatSize renders a byte count in the largest fitting unit followed by the raw token in parentheses,
// e.g. "4.00 KB (0x1000)". Units are binary multiples labelled B/KB/MB/GB as the driver tooling prints them.
func FormatSize(size uint64, raw string) string {
	switch {
	case size >= GiB:
		return fmt.Sprintf("%.2f GB (%s)", float64(size)/float64(GiB), raw)
	case size >= MiB:
		return fmt.Sprintf("%.2f MB (%s)", float64(size)/float64(MiB), raw)
	case size >= KiB:
		return fmt.Sprintf("%.2f KB (%s)", float64(size)/float64(KiB), raw)
	}
	return fmt.Sprintf("%d B (%s)", size, raw)
}

// Percent returns part*100/total rounded down, or zero when total is zero
func Percent[T constraints.Integer](part, total T) T {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}

// Microseconds renders a nanosecond duration as microseconds with two decimals
func Microseconds(ns float64) string {
	return fmt.Sprintf("%.2f µs", ns/1000)
}
