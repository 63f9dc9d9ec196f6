// Package password hashes and verifies account passwords with argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the cost parameters from the stored string, so
// raising the [Config] costs does not invalidate existing hashes;
// [Hasher.NeedsRehash] tells the caller when to re-hash after a
// successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Log plaintext passwords.
package password
