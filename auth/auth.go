// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidOperatorKey = errors.New("invalid operator key")
	ErrInvalidToken       = errors.New("invalid control token")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateControlToken creates the random secret returned once at session
// creation. Every later state-mutating call must present it.
func GenerateControlToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate control token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// HashControlToken returns the hex SHA-256 of a control token. Only the
// hash is stored server-side; the plaintext lives in the display's
// recovery cache.
func HashControlToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyControlToken compares a presented token against a stored hash in
// constant time.
func VerifyControlToken(token, storedHash string) error {
	presented := HashControlToken(token)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// GenerateOperatorKey creates an HMAC-based operator key for a location.
// This is deterministic and verifiable without storing the key.
func GenerateOperatorKey(locationID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(locationID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateOperatorKey checks if the provided operator key is valid for the location
func ValidateOperatorKey(locationID, operatorKey, salt string) error {
	expected := GenerateOperatorKey(locationID, salt)
	if !hmac.Equal([]byte(operatorKey), []byte(expected)) {
		return ErrInvalidOperatorKey
	}
	return nil
}

// GenerateSessionCode creates the short human-readable code printed on the
// kiosk screen for manual session recovery at the counter.
// Uses HMAC for determinism and base62 encoding for easy typing.
func GenerateSessionCode(sessionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(sessionID))
	sum := h.Sum(nil)

	// Take first 8 bytes for a shorter code
	shortHash := sum[:8]

	return base62Encode(shortHash)
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// Convert bytes to a big integer
	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	// Reverse the string
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}
