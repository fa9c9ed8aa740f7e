// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Control Tokens

Control tokens are random 24-byte (192-bit) secrets returned exactly once
when a session is created:

	token, err := auth.GenerateControlToken()

The server keeps only the SHA-256 hash; the plaintext exists in the
kiosk's local recovery cache and nowhere else:

	hash := auth.HashControlToken(token)
	err := auth.VerifyControlToken(presented, hash)

Verification is constant-time.

# Operator Keys

Operator keys use HMAC-SHA256 to create deterministic, verifiable keys
per location:

	key := auth.GenerateOperatorKey(locationID, salt)
	err := auth.ValidateOperatorKey(locationID, key, salt)

Since the key is deterministic, the same location ID and salt always
produce the same key. This allows validation without storing the key in
the database. An operator key may advance or cancel any session at its
location.

# Session Codes

Session codes create short, typeable identifiers for manual recovery:

	code := auth.GenerateSessionCode(sessionID, salt)

Codes are base62 encoded (alphanumeric only). Like operator keys, they're
deterministic from the session ID and salt.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
