package types

// Node is one materialized entry of the filesystem tree: the metadata a
// browser pane needs to render a file or directory without touching the disk
// again. The cache treats it as opaque; only the size estimator reads fields,
// and only to weigh the entry against the memory ceiling.
type Node struct {
	Name      string
	Path      string // canonical path, also used as the cache key
	TypeLabel string // display label, e.g. "Folder", "Text Document"
	Extension string
	Icon      string

	Size  int64
	IsDir bool
	Depth int

	// Children holds already-materialized child nodes for an expanded
	// directory. May grow after insertion; see Cache.Resize.
	Children []*Node

	Expanded bool
}

// ChildCount returns how many children have been materialized so far.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}
