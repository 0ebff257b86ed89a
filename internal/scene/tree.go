package scene

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/dirctx"
)

// defaultCacheSize is the NodeCache capacity used when a tree is small.
const defaultCacheSize = 1024

// NodeCache memoises the dump text of each node by index.
type NodeCache struct {
	cache *lru.Cache[int, string]
}

// NewNodeCache returns a cache holding up to size entries.
func NewNodeCache(size int) (*NodeCache, error) {
	if size < defaultCacheSize {
		size = defaultCacheSize
	}
	c, err := lru.New[int, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create node cache: %w", err)
	}
	return &NodeCache{cache: c}, nil
}

// Get returns the cached dump of the node with index idx.
func (c *NodeCache) Get(idx int) (string, bool) { return c.cache.Get(idx) }

// Add stores the dump of the node with index idx.
func (c *NodeCache) Add(idx int, s string) { c.cache.Add(idx, s) }

// Len is the number of cached entries.
func (c *NodeCache) Len() int { return c.cache.Len() }

// Clear drops every entry.
func (c *NodeCache) Clear() { c.cache.Purge() }

// Tree wraps an instantiated root node and renders the CSG tree dump.
type Tree struct {
	root  *Node
	dirs  *dirctx.Context
	cache *NodeCache
}

// NewTree returns a Tree for root. Imported file paths in the dump are
// rendered relative to the current directory of dirs at dump time.
func NewTree(root *Node, dirs *dirctx.Context) (*Tree, error) {
	cache, err := NewNodeCache(root.Count())
	if err != nil {
		return nil, err
	}
	return &Tree{root: root, dirs: dirs, cache: cache}, nil
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Cache returns the tree's node cache.
func (t *Tree) Cache() *NodeCache { return t.cache }

// String dumps the subtree rooted at n. Results are cached per node, so the
// cache must be cleared if the current directory changes between dumps.
func (t *Tree) String(n *Node) string {
	if s, ok := t.cache.Get(n.Index); ok {
		return s
	}
	var sb strings.Builder
	sb.WriteString(t.nodeHeader(n))
	switch {
	case n.Kind.IsLeaf(), len(n.Children) == 0:
		sb.WriteString(";")
	default:
		sb.WriteString(" {\n")
		for _, c := range n.Children {
			for _, line := range strings.Split(t.String(c), "\n") {
				sb.WriteString("\t" + line + "\n")
			}
		}
		sb.WriteString("}")
	}
	s := sb.String()
	t.cache.Add(n.Index, s)
	return s
}

// Dump renders the whole tree followed by a newline.
func (t *Tree) Dump() string {
	return t.String(t.root) + "\n"
}

func (t *Tree) nodeHeader(n *Node) string {
	var prefix string
	if n.Has(TagRoot) {
		prefix += "!"
	}
	if n.Has(TagHighlight) {
		prefix += "#"
	}
	if n.Has(TagBackground) {
		prefix += "%"
	}
	return prefix + n.Name() + "(" + t.params(n) + ")"
}

func (t *Tree) params(n *Node) string {
	switch n.Kind {
	case NodeTransform:
		rows := make([]string, 4)
		for r := 0; r < 4; r++ {
			rows[r] = fmt.Sprintf("[%s, %s, %s, %s]",
				FormatNumber(n.Matrix[r*4]), FormatNumber(n.Matrix[r*4+1]),
				FormatNumber(n.Matrix[r*4+2]), FormatNumber(n.Matrix[r*4+3]))
		}
		return "[" + strings.Join(rows, ", ") + "]"
	case NodeCube:
		return fmt.Sprintf("size = [%s, %s, %s], center = %t",
			FormatNumber(n.Size.X), FormatNumber(n.Size.Y), FormatNumber(n.Size.Z), n.Center)
	case NodeSquare:
		return fmt.Sprintf("size = [%s, %s], center = %t",
			FormatNumber(n.Size.X), FormatNumber(n.Size.Y), n.Center)
	case NodePolygon:
		return fmt.Sprintf("points = %s, paths = %s, convexity = %d",
			formatPoints(n.Points, 2), formatIndices(n.Paths), n.Convexity)
	case NodePolyhedron:
		return fmt.Sprintf("points = %s, faces = %s, convexity = %d",
			formatPoints(n.Points, 3), formatIndices(n.Paths), n.Convexity)
	case NodeImport:
		file := n.File
		if file != "" && t.dirs != nil {
			file = t.dirs.Rel(file)
		}
		return fmt.Sprintf("file = %s, convexity = %d", quote(file), n.Convexity)
	}
	return ""
}

func formatPoints(pts []r3.Vec, dim int) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		if dim == 2 {
			parts[i] = fmt.Sprintf("[%s, %s]", FormatNumber(p.X), FormatNumber(p.Y))
		} else {
			parts[i] = fmt.Sprintf("[%s, %s, %s]", FormatNumber(p.X), FormatNumber(p.Y), FormatNumber(p.Z))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatIndices(idx [][]int) string {
	if idx == nil {
		return "undef"
	}
	rows := make([]string, len(idx))
	for i, row := range idx {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = "[" + strings.Join(cells, ", ") + "]"
	}
	return "[" + strings.Join(rows, ", ") + "]"
}
