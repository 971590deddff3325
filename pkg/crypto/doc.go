/*
Package crypto seals passwords for storage in a passgen vault.

A password is encrypted with ChaCha20-Poly1305 under a 32 byte key derived from
the passgen key. Every call draws a fresh 12 byte nonce from crypto/rand and the
result is written as a single blob:

	nonce (12) || ciphertext (len(password)) || tag (16)

Decryption checks the length, derives the same key, verifies the tag and finally
checks the password is valid UTF-8. Each step fails with its own error type from
the types package so callers can branch with types.KindOf or errors.As:

	types.MalformedInputError   blob shorter than a nonce
	types.AuthenticationError   wrong key, corrupted or tampered blob
	types.EncodingError         authenticated but not UTF-8

A failed tag check never returns any plaintext, and its message does not say
whether the key or the data was at fault.

Key derivation defaults to a single SHA-256 pass over the passgen key with no
salt. This is fast and offers no protection against an offline guessing attack
on a weak passgen key; it is kept as the default because existing vaults were
written that way. PBKDF2 and Argon2id can be selected in the configuration for
new vaults. They use a fixed salt so the same passgen key still always yields
the same key.

Derived keys and plaintext buffers are wiped with memguard once each call
returns, on error paths as well. No function in this package keeps state and
all of them are safe for concurrent use.

	package main

	import (
		"fmt"

		"github.com/notapipeline/passgen/pkg/crypto"
		"github.com/notapipeline/passgen/pkg/types"
	)

	func main() {
		cfg := types.EncryptionConfig{PassgenKey: "my-secret-key"}

		blob, err := crypto.Encrypt("Tr0ub4dor&3", cfg)
		if err != nil {
			panic(err)
		}

		password, err := crypto.Decrypt(blob, cfg)
		if err != nil {
			panic(err)
		}
		fmt.Println(len(blob), password) // 39 Tr0ub4dor&3
	}
*/
package crypto
