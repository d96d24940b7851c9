// Package words provides the secret-word pool used to seed drawing rounds.
// Word packs are YAML files; rooms receive a flat []string and never touch
// the filesystem themselves.
package words

import (
	"strings"
)

// Fallback returns the built-in emergency word set used when no pack
// directory is configured or the configured directory yields no packs.
//
// Postcondition: Returns a non-empty slice; callers must not mutate it.
func Fallback() []string {
	return []string{
		"apple", "cat", "house", "sun",
		"苹果", "猫", "房子", "太阳",
	}
}

// Merge flattens packs into a single pool, dropping duplicates while
// preserving first-seen order.
//
// Postcondition: Returns a slice with no duplicate entries.
func Merge(packs []*Pack) []string {
	seen := make(map[string]bool)
	var pool []string
	for _, pack := range packs {
		for _, w := range pack.Words {
			if seen[w] {
				continue
			}
			seen[w] = true
			pool = append(pool, w)
		}
	}
	return pool
}

// clean trims an entry and reports whether it should be kept. Blank lines and
// '#' comments are discarded, matching the plain-text word list format the
// packs were migrated from.
func clean(entry string) (string, bool) {
	t := strings.TrimSpace(entry)
	if t == "" || strings.HasPrefix(t, "#") {
		return "", false
	}
	return t, true
}
