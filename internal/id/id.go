// Package id generates the URL-safe identifiers used for slides, style candidates and generation tasks.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated identifiers.
const (
	PrefixSlide     = "slide"
	PrefixCandidate = "candidate"
)

// suffixAlphabet keeps ids lowercase alphanumeric so they read well in paths and URLs.
const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// suffixLength gives 36^8 (about 2.8e12) ids per prefix. No uniqueness check is made against
// existing ids; collisions within one project are negligible at that size.
const suffixLength = 8

// Generate creates a prefixed id. Format: prefix-xxxxxxxx (e.g., "slide-k3v9x0ab").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + suffix, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Slide returns a new slide id.
func Slide() (string, error) { return Generate(PrefixSlide) }

// Candidate returns a new style candidate id.
func Candidate() (string, error) { return Generate(PrefixCandidate) }

// Task returns a new generation task id.
func Task() string {
	return uuid.NewString()
}
