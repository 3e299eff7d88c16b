package crypto

import "errors"

var (
	ErrEmptySecret      = errors.New("credentials secret is empty")
	ErrCiphertextShort  = errors.New("ciphertext too short")
	ErrDecryptionFailed = errors.New("decryption failed")
)
