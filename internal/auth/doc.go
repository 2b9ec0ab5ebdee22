// Package auth owns the vault's bootstrap and credential lifecycle.
//
// Persisted layout under the data directory:
//   - config: YAML key/value credential record (username, passwordChanged,
//     passwordHash, passwordSalt, vaultID)
//   - master.key: base64 of the 32-byte master key
//   - recovery.txt: base64 recovery secret, single value
//
// The Manager is an explicit context object: constructed once at process
// start, passed by reference to the storage and backup layers, torn down at
// process exit. There is no global lookup.
package auth
