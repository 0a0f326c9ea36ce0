// Package tokengen produces random URL-safe short tokens.
//
// Generators know nothing about tokens already in use; callers that need
// uniqueness must enforce it at the store and retry on collision.
// All generators are safe for concurrent use.
package tokengen

import (
	"crypto/rand"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// NanoIDAlphabet is the URL-safe alphabet used by NanoID.
	NanoIDAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// Base62Alphabet is the alphanumeric-only alphabet.
	Base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// Kind names a generator implementation in configuration.
type Kind string

const (
	KindNanoID Kind = "nanoid"
	KindBase62 Kind = "base62"
)

var errNonPositiveLength = errors.New("length must be positive")

// Generator generates short tokens of a requested length.
type Generator interface {
	Generate(length int) (string, error)
}

// New returns the generator for kind. An empty kind selects NanoID.
func New(kind Kind) (Generator, error) {
	switch kind {
	case "", KindNanoID:
		return NewNanoID(), nil
	case KindBase62:
		return NewBase62(), nil
	default:
		return nil, fmt.Errorf("unknown token generator %q", kind)
	}
}

type nanoIDGenerator struct{}

// NewNanoID returns a generator over NanoIDAlphabet.
func NewNanoID() Generator {
	return nanoIDGenerator{}
}

func (nanoIDGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errNonPositiveLength
	}
	return gonanoid.Generate(NanoIDAlphabet, length)
}

type base62Generator struct{}

// NewBase62 returns a generator over Base62Alphabet.
func NewBase62() Generator {
	return base62Generator{}
}

// base62Cutoff is the largest multiple of 62 that fits in a byte; bytes at or
// above it are discarded so every symbol is equally likely.
const base62Cutoff = 256 - 256%len(Base62Alphabet)

func (base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errNonPositiveLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= base62Cutoff {
				continue
			}
			out = append(out, Base62Alphabet[int(b)%len(Base62Alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
