// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/rand"
	"fmt"
)

// secretAlphabet is URL- and header-safe, so generated secrets can be
// pasted into webhook configuration and Telegram messages unescaped.
const secretAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// SecretLength is the length of generated secrets. 21 symbols from a
// 64-symbol alphabet carry 126 bits.
const SecretLength = 21

// GenerateSecret returns a random secret of SecretLength symbols.
func GenerateSecret() (string, error) {
	buffer := make([]byte, SecretLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for index, value := range buffer {
		// 64 divides 256, so masking keeps the distribution uniform.
		buffer[index] = secretAlphabet[value&63]
	}
	return string(buffer), nil
}
