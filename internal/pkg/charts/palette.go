package charts

import (
	"strings"

	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// tab20 is matplotlib's qualitative palette, used for stages without a
// configured color.
var tab20 = []string{
	"1f77b4", "aec7e8", "ff7f0e", "ffbb78", "2ca02c",
	"98df8a", "d62728", "ff9896", "9467bd", "c5b0d5",
	"8c564b", "c49c94", "e377c2", "f7b6d2", "7f7f7f",
	"c7c7c7", "bcbd22", "dbdb8d", "17becf", "9edae5",
}

type Palette struct {
	Colors map[string]string
}

// StageColors assigns one color per schema entry. The fallback color depends
// only on the stage's position, so both sides of a comparison match.
func (p Palette) StageColors(schema models.StageSchema) []drawing.Color {
	colors := make([]drawing.Color, len(schema))
	for i, stage := range schema {
		if hex, ok := p.Colors[stage]; ok && hex != "" {
			colors[i] = ParseColor(hex)
			continue
		}
		colors[i] = ParseColor(tab20[fallbackIndex(i, len(schema))])
	}
	return colors
}

func fallbackIndex(i, n int) int {
	if n <= 1 {
		return 0
	}

	index := int(float64(i) / float64(n-1) * float64(len(tab20)))
	if index >= len(tab20) {
		index = len(tab20) - 1
	}
	return index
}

func ParseColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
