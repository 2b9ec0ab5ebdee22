package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// matchFunc is a single resolution strategy: a pure predicate from a query
// and a stored filename to a match decision.
type matchFunc func(query, filename string) bool

// resolutionOrder is the fixed strategy order; the first strategy that
// matches any stored filename wins, so later, looser strategies only apply
// when every stricter one came up empty.
var resolutionOrder = []matchFunc{
	matchExact,
	matchExactWithSuffix,
	matchFold,
	matchFoldWithSuffix,
	matchFoldPrefix,
	matchID,
}

func matchExact(query, filename string) bool {
	return filename == query
}

func matchExactWithSuffix(query, filename string) bool {
	return filename == query+Suffix
}

func matchFold(query, filename string) bool {
	return strings.EqualFold(filename, query)
}

func matchFoldWithSuffix(query, filename string) bool {
	return strings.EqualFold(filename, query+Suffix)
}

func matchFoldPrefix(query, filename string) bool {
	return len(query) > 0 &&
		strings.HasPrefix(strings.ToLower(filename), strings.ToLower(query))
}

// matchID compares the query against the id segment preceding the
// separator token.
func matchID(query, filename string) bool {
	idx := strings.Index(filename, NameSep)
	if idx <= 0 {
		return false
	}
	return strings.EqualFold(filename[:idx], query)
}

// Resolve locates the stored file for a query, tolerating missing
// extensions, case changes and bare ids. It returns the full path of the
// first match in strategy order, or ErrNotFound.
func (s *Store) Resolve(query string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read storage directory: %w", err)
	}

	for _, match := range resolutionOrder {
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			if match(query, entry.Name()) {
				return filepath.Join(s.dir, entry.Name()), nil
			}
		}
	}

	return "", ErrNotFound
}
