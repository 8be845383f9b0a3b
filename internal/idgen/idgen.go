// Package idgen generates short, URL-safe identifiers for events and
// snapshots, backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes distinguish what an identifier names.
const (
	EventPrefix    = "cc-"
	SnapshotPrefix = "snap-"
)

// alphabet is the character set of the random part.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters after the prefix.
const Length = 12

// GenerateWithPrefix returns a new identifier starting with prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
