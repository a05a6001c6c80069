package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/vkngwrapper/rmlog/bitfield"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/rmutils"
)

const bannerWidth = 80

var bannerRule = strings.Repeat("=", bannerWidth)

func writeBanner(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", bannerRule, title, bannerRule)
}

// sizeText renders a byte count token as "4.00 KB (0x1000)", or as logged when it is not a number
func sizeText(v records.Value) string {
	if !byteCount(v) {
		return v.String()
	}
	return rmutils.FormatSize(v.Uint64(), v.String())
}

func durationText(ns uint64) string {
	return fmt.Sprintf("%d ns (%s)", ns, rmutils.Microseconds(float64(ns)))
}

func typeText(v records.Value) string {
	return fmt.Sprintf("%s (%s)", v, bitfield.TypeName(v.Uint64()))
}
