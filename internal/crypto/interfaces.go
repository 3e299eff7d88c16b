package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// CredentialCipher protects provider OAuth tokens at rest. It knows nothing
// about the database or the provider: it only turns plaintext secrets into
// opaque strings and back.
type CredentialCipher interface {
	// Encrypt seals plaintext and returns a base64 blob (nonce || ciphertext).
	// Empty input yields empty output so that absent refresh tokens stay absent.
	Encrypt(plaintext string) (string, error)

	// Decrypt opens a blob produced by Encrypt. It fails with
	// [ErrDecryptionFailed] when the blob was sealed under another key or
	// has been tampered with.
	Decrypt(blob string) (string, error)
}

// PasswordHasher hashes and verifies share link passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
