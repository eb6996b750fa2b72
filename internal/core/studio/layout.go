package studio

import (
	"math"

	"stagecast/internal/core/domain"
)

// ComputeLayout tiles the given items onto a canvas of the given size and
// returns a new slice with PosX/PosY/Width/Height filled in. Items keep
// their order; insertion order determines grid position.
//
// Cell height divides by numCol on purpose: rows are padded vertically when
// the grid is not square.
func ComputeLayout(items []domain.StudioItem, width, height int) []domain.StudioItem {
	out := make([]domain.StudioItem, len(items))
	copy(out, items)

	n := len(out)
	if n == 0 || width <= 0 || height <= 0 {
		return out
	}

	numCol := int(math.Ceil(math.Sqrt(float64(n))))
	numRow := numCol
	if n <= numCol*(numCol-1) {
		numRow = numCol - 1
	}

	cellW := width / numCol
	cellH := height / numCol

	paddingY := 0
	if numRow < numCol {
		paddingY = cellH / 2
	}

	for row := 0; row < numRow; row++ {
		for col := 0; col < numCol; col++ {
			idx := col + row*numCol
			if idx >= n {
				continue
			}
			item := &out[idx]

			item.Height = cellH
			if item.VideoHeight > 0 {
				item.Width = item.VideoWidth * cellH / item.VideoHeight
			} else {
				item.Width = cellW
			}

			item.PosX = col * cellW
			if cellW > item.Width {
				item.PosX += (cellW - item.Width) / 2
			}
			item.PosY = row*cellH + paddingY
		}
	}

	return out
}
