package state

import "github.com/five82/docwatch/internal/docsops"

// CloneSlice copies a slice of plain records. nil stays nil.
func CloneSlice[T any](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}

// EmptySlice returns a non-nil empty slice.
func EmptySlice[T any]() []T {
	return []T{}
}

// CloneFolderStats deep-copies the decoded JSON tree.
func CloneFolderStats(f docsops.FolderStats) docsops.FolderStats {
	if f == nil {
		return nil
	}
	return docsops.FolderStats(cloneJSON(map[string]any(f)).(map[string]any))
}

// EmptyFolderStats returns a non-nil empty object.
func EmptyFolderStats() docsops.FolderStats {
	return docsops.FolderStats{}
}

func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneJSON(val)
		}
		return out
	default:
		return v
	}
}
