package download

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkaravel/eprm-crawler/internal/extract"
	"github.com/pkaravel/eprm-crawler/internal/inventory"
)

func TestFromInventoryDedupesPerCategory(t *testing.T) {
	inv := inventory.Inventory{
		"b": {"file/view/1", "file/view/2", "file/view/1"},
		"a": {"file/view/1", "", "  ", extract.PlaceholderHref},
	}

	items := FromInventory(inv)
	require.Equal(t, []Item{
		{Category: "a", URL: "file/view/1"},
		{Category: "b", URL: "file/view/1"},
		{Category: "b", URL: "file/view/2"},
	}, items, "categories sorted, URLs deduplicated, blanks and the placeholder dropped")
}

func TestItemKey(t *testing.T) {
	require.Equal(t, "docs/file/view/a", Item{Category: "docs", URL: "file/view/a"}.Key())
}

func TestPartitionKeepsCategoriesTogether(t *testing.T) {
	items := []Item{
		{Category: "a", URL: "1"},
		{Category: "b", URL: "2"},
		{Category: "a", URL: "3"},
		{Category: "c", URL: "4"},
	}

	shards := Partition(items, 2)
	require.Len(t, shards, 2)

	shardOf := map[string]int{}
	for i, shard := range shards {
		for _, it := range shard {
			if prev, seen := shardOf[it.Category]; seen {
				require.Equal(t, prev, i, "one category must not span shards")
			}
			shardOf[it.Category] = i
		}
	}
	require.Equal(t, 4, len(shards[0])+len(shards[1]))
}

func TestPartitionSingleWorker(t *testing.T) {
	items := []Item{{Category: "a", URL: "1"}}
	shards := Partition(items, 1)
	require.Equal(t, [][]Item{items}, shards)
}
