// Package shortener generates the short public slugs used in share links.
package shortener

import (
	"crypto/rand"
	"fmt"
)

// Base62 alphabet: 0-9, a-z, A-Z
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ShareSlugLength is the length of campaign share slugs.
const ShareSlugLength = 8

const maxSlugAttempts = 5

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// NewShareSlug returns a slug that taken reports as free. It gives up after a
// few collisions, which at 62^8 means something else is wrong.
func NewShareSlug(taken func(slug string) (bool, error)) (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		slug, err := GenerateSecureSlug(ShareSlugLength)
		if err != nil {
			return "", err
		}
		used, err := taken(slug)
		if err != nil {
			return "", err
		}
		if !used {
			return slug, nil
		}
	}
	return "", fmt.Errorf("no free share slug after %d attempts", maxSlugAttempts)
}
