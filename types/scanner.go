package types

import "context"

// Scanner is the contract between the cache and the directory-scanning
// collaborator. The cache never walks the filesystem itself; on a read-through
// miss it asks the Scanner to materialize the node for a path.
//
// Scan must be safe for concurrent calls on distinct paths. The cache
// deduplicates concurrent calls for the same path, so a given path is scanned
// at most once per miss.
type Scanner interface {
	Scan(ctx context.Context, path string) (*Node, error)
}

// ScanFunc adapts a plain function to the Scanner interface.
type ScanFunc func(ctx context.Context, path string) (*Node, error)

func (f ScanFunc) Scan(ctx context.Context, path string) (*Node, error) {
	return f(ctx, path)
}
