// Package backup snapshots the whole vault into a single encrypted
// artifact and restores it. The artifact is a zip of the storage directory
// and the vault's persisted files, sealed with the same AES-256-GCM layout
// as stored files: 12-byte nonce, ciphertext, 16-byte tag.
package backup
