// Package crypto provides the vault's cipher engine and key derivation.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte symmetric key
//   - 12-byte random nonce per encryption operation, prepended to the output
//   - 16-byte authentication tag appended by GCM
//
// A tag mismatch fails the whole operation; no partial plaintext is ever
// returned. Key derivation for password hashing uses PBKDF2-HMAC-SHA256
// with a 16-byte random salt and a fixed iteration count.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Engine.Destroy() when done with encryption operations
package crypto
