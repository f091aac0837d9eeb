package render

import (
	"fmt"
	"math"

	"github.com/yumyai/roaryviz/pkg/model"
)

// calculateColorByFrequency maps a presence percentage to a color between
// #ff0000 (red, rare) and #00ff00 (green, everywhere).
func calculateColorByFrequency(value float64) string {

	// Present everywhere
	if value >= 100 {
		return fmt.Sprintf("#%02X%02X00", 0, 255)
	}

	// Absent everywhere
	if value <= 0 {
		return "#8B8989"
	}

	normalized := value / 100

	var r, g int

	if normalized <= 0.5 {
		r = 255
		g = int(math.Round(normalized * 2 * 255))
	} else {
		r = int(math.Round((1 - normalized) * 2 * 255))
		g = 255
	}

	return fmt.Sprintf("#%02X%02X00", r, g)
}

// categoryColor uses the YlOrRd buckets, darkest for core.
func categoryColor(c model.GeneCategory) string {
	switch c {
	case model.CategoryCore:
		return "#BD0026"
	case model.CategorySoftcore:
		return "#F03B20"
	case model.CategoryShell:
		return "#FD8D3C"
	case model.CategoryCloud:
		return "#FECC5C"
	default:
		return "#CCCCCC"
	}
}

// presenceColor blends the category color toward white for absent cells.
func presenceColor(c model.GeneCategory, present bool) string {
	if !present {
		return "#F5F5F5"
	}
	return categoryColor(c)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// curveColor gives the k-th of n rarefaction points a gradient from light
// yellow (#FFFFB2) to dark red (#800000).
func curveColor(k, n int) string {
	if n <= 1 {
		return "#800000"
	}
	t := float64(k) / float64(n-1)
	sr, sg, sb := 255.0, 255.0, 178.0 // #FFFFB2
	er, eg, eb := 128.0, 0.0, 0.0     // #800000
	return fmt.Sprintf("#%02X%02X%02X",
		int(math.Round(lerp(sr, er, t))),
		int(math.Round(lerp(sg, eg, t))),
		int(math.Round(lerp(sb, eb, t))))
}
