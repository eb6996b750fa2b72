package studio

import (
	"testing"

	"stagecast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeItems() []domain.StudioItem {
	items := make([]domain.StudioItem, 3)
	for i := range items {
		items[i] = domain.StudioItem{
			PeerID:          domain.PeerID(string(rune('a' + i))),
			AudioProducerID: domain.ProducerID(string(rune('a'+i)) + "-audio"),
			VideoProducerID: domain.ProducerID(string(rune('a'+i)) + "-video"),
			VideoWidth:      320,
			VideoHeight:     240,
		}
	}
	return items
}

func TestComputeLayout_ThreeItems1080p(t *testing.T) {
	items := ComputeLayout(threeItems(), 1920, 1080)
	require.Len(t, items, 3)

	// 3 items: 2x2 grid, cell 960x540, scaled width 320*540/240 = 720.
	for _, item := range items {
		assert.Equal(t, 540, item.Height)
		assert.Equal(t, 720, item.Width)
	}

	assert.Equal(t, 120, items[0].PosX)
	assert.Equal(t, 0, items[0].PosY)
	assert.Equal(t, 1080, items[1].PosX)
	assert.Equal(t, 0, items[1].PosY)
	assert.Equal(t, 120, items[2].PosX)
	assert.Equal(t, 540, items[2].PosY)
}

func TestComputeLayout_Deterministic(t *testing.T) {
	first := ComputeLayout(threeItems(), 1920, 1080)
	second := ComputeLayout(threeItems(), 1920, 1080)
	assert.Equal(t, first, second)
}

func TestComputeLayout_TwoItemsPadsVertically(t *testing.T) {
	items := ComputeLayout(threeItems()[:2], 1920, 1080)
	require.Len(t, items, 2)

	// 2 items: numCol=2, numRow=1, rows padded down by half a cell.
	assert.Equal(t, 270, items[0].PosY)
	assert.Equal(t, 270, items[1].PosY)
}

func TestComputeLayout_SingleItemFillsCell(t *testing.T) {
	items := ComputeLayout(threeItems()[:1], 1920, 1080)
	require.Len(t, items, 1)

	assert.Equal(t, 1080, items[0].Height)
	assert.Equal(t, 320*1080/240, items[0].Width)
	assert.Equal(t, 0, items[0].PosY)
}

func TestComputeLayout_Empty(t *testing.T) {
	assert.Empty(t, ComputeLayout(nil, 1920, 1080))
}

func TestComputeLayout_DoesNotMutateInput(t *testing.T) {
	items := threeItems()
	ComputeLayout(items, 1920, 1080)
	assert.Equal(t, 0, items[0].Width)
	assert.Equal(t, 0, items[0].PosX)
}
