package storage

import (
	"iter"
	"strings"
)

// FoldDelimiter applies S3 delimiter semantics to a flat listing: every
// object whose key contains delimiter after prefix is replaced by a single
// EntryPrefix covering it. Objects outside prefix are dropped. An empty
// delimiter passes objects through unchanged.
func FoldDelimiter(prefix, delimiter string, entries iter.Seq2[Entry, error]) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		seen := make(map[string]struct{})
		for e, err := range entries {
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if !strings.HasPrefix(e.Key, prefix) {
				continue
			}
			if e.Kind == EntryObject && delimiter != "" {
				rest := e.Key[len(prefix):]
				if i := strings.Index(rest, delimiter); i >= 0 {
					e = Entry{Kind: EntryPrefix, ObjectInfo: ObjectInfo{Key: prefix + rest[:i+len(delimiter)]}}
				}
			}
			if e.Kind == EntryPrefix {
				if _, dup := seen[e.Key]; dup {
					continue
				}
				seen[e.Key] = struct{}{}
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Collect drains a listing into a slice, stopping at the first error.
func Collect(entries iter.Seq2[Entry, error]) ([]Entry, error) {
	var out []Entry
	for e, err := range entries {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
