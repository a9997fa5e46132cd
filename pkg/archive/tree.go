package archive

import (
	"errors"
	"path"
	"sort"
	"sync"
	"sync/atomic"
)

// ErrDuplicateEntry is returned when a file is attached twice under the same folder.
var ErrDuplicateEntry = errors.New("archive: duplicate entry")

// Node is one folder of the in-progress archive. Children and files are guarded by the node's own
// mutex so concurrent attaches to different folders never contend.
type Node struct {
	mu       sync.Mutex
	children map[string]*Node
	files    map[string][]byte
}

func newNode() *Node {
	return &Node{children: map[string]*Node{}, files: map[string][]byte{}}
}

// Child returns the sub-folder named segment, creating it on first use. Concurrent callers asking
// for the same segment receive the same *Node.
func (n *Node) Child(segment string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	child, ok := n.children[segment]
	if !ok {
		child = newNode()
		n.children[segment] = child
	}
	return child
}

func (n *Node) putFile(name string, data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.files[name]; exists {
		return ErrDuplicateEntry
	}
	if _, exists := n.children[name]; exists {
		return ErrDuplicateEntry
	}
	n.files[name] = data
	return nil
}

// Tree is the archive representation built while photos are fetched. It lives for one export.
type Tree struct {
	root  *Node
	files atomic.Int64
	bytes atomic.Int64
}

// NewTree returns an empty archive tree.
func NewTree() *Tree {
	return &Tree{root: newNode()}
}

// Dir walks, creating as needed, the folder chain named by segments. Empty segments are ignored.
func (t *Tree) Dir(segments ...string) *Node {
	node := t.root
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		node = node.Child(segment)
	}
	return node
}

// AddFile attaches data as name inside the folder chain dir. Folders are only materialised here, so
// a folder never exists without at least one file below it.
func (t *Tree) AddFile(dir []string, name string, data []byte) error {
	if err := t.Dir(dir...).putFile(name, data); err != nil {
		return err
	}
	t.files.Add(1)
	t.bytes.Add(int64(len(data)))
	return nil
}

// FileCount reports how many files were attached.
func (t *Tree) FileCount() int {
	return int(t.files.Load())
}

// Size reports the total uncompressed payload size.
func (t *Tree) Size() int64 {
	return t.bytes.Load()
}

// Walk visits every file in lexical path order. It must only be called once all writers finished.
func (t *Tree) Walk(fn func(name string, data []byte) error) error {
	return walk(t.root, "", fn)
}

// Paths lists every file path in walk order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, t.FileCount())
	_ = t.Walk(func(name string, _ []byte) error {
		paths = append(paths, name)
		return nil
	})
	return paths
}

func walk(n *Node, prefix string, fn func(string, []byte) error) error {
	n.mu.Lock()
	fileNames := make([]string, 0, len(n.files))
	for name := range n.files {
		fileNames = append(fileNames, name)
	}
	childNames := make([]string, 0, len(n.children))
	for name := range n.children {
		childNames = append(childNames, name)
	}
	n.mu.Unlock()

	sort.Strings(fileNames)
	sort.Strings(childNames)

	for _, name := range fileNames {
		if err := fn(path.Join(prefix, name), n.files[name]); err != nil {
			return err
		}
	}
	for _, name := range childNames {
		if err := walk(n.children[name], path.Join(prefix, name), fn); err != nil {
			return err
		}
	}
	return nil
}
