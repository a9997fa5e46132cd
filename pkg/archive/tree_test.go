package archive

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeChildIsAtomic(t *testing.T) {
	tree := NewTree()
	const workers = 64

	nodes := make([]*Node, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nodes[i] = tree.Dir("unit", "worker", "item")
		}(i)
	}
	wg.Wait()

	for _, n := range nodes {
		require.Same(t, nodes[0], n)
	}
}

func TestTreeConcurrentAttach(t *testing.T) {
	tree := NewTree()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := []string{"root", fmt.Sprintf("item-%d", i%5)}
			assert.NoError(t, tree.AddFile(dir, fmt.Sprintf("%02d_photo.jpg", i), []byte{byte(i)}))
		}(i)
	}
	wg.Wait()

	require.Equal(t, 50, tree.FileCount())
	require.Equal(t, int64(50), tree.Size())
	paths := tree.Paths()
	require.Len(t, paths, 50)
	require.Equal(t, "root/item-0/00_photo.jpg", paths[0])
}

func TestTreeDuplicateEntry(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddFile([]string{"a"}, "01_x.jpg", []byte("1")))
	require.ErrorIs(t, tree.AddFile([]string{"a"}, "01_x.jpg", []byte("2")), ErrDuplicateEntry)
	require.Equal(t, 1, tree.FileCount())
}

func TestTreeIgnoresEmptySegments(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddFile([]string{"", "item", ""}, "01_x.jpg", nil))
	require.Equal(t, []string{"item/01_x.jpg"}, tree.Paths())
}
