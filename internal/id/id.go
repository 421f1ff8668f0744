// Package id generates short, URL-safe unique identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// size is the nanoid length. 12 characters keep clip names short while
// staying collision-free for the handful of files a run creates.
const size = 12

// Generate returns prefix-<nanoid>, e.g. "clip-V1StGXR8_Z5j".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New(size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	if prefix == "" {
		return n, nil
	}
	return prefix + "-" + n, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
