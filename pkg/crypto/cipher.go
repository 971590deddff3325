/*
 *   Copyright 2023 Martin Proffitt <mproffitt@choclab.net>
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */
package crypto

import (
	cryptorand "crypto/rand"
	"io"
	"unicode/utf8"

	"github.com/awnumar/memguard"
	"github.com/notapipeline/passgen/pkg/types"
	"golang.org/x/crypto/chacha20poly1305"
)

var randReader io.Reader = cryptorand.Reader

var newAEAD = chacha20poly1305.New

// Encrypt seals plaintext under a key derived from cfg and returns
// nonce || ciphertext || tag.
func Encrypt(plaintext string, cfg types.EncryptionConfig) (types.Blob, error) {
	key, err := DeriveKey([]byte(cfg.PassgenKey), cfg.KDF)
	if err != nil {
		return nil, err
	}
	defer wipe(key)

	data := []byte(plaintext)
	defer wipe(data)
	return EncryptWith(data, key)
}

// Decrypt opens a blob written by Encrypt and returns the password.
func Decrypt(blob types.Blob, cfg types.EncryptionConfig) (string, error) {
	if len(blob) < types.NonceSize {
		return "", types.MalformedInputError{Length: len(blob)}
	}

	key, err := DeriveKey([]byte(cfg.PassgenKey), cfg.KDF)
	if err != nil {
		return "", err
	}
	defer wipe(key)

	plaintext, err := DecryptWith(blob, key)
	if err != nil {
		return "", err
	}
	defer wipe(plaintext)
	return string(plaintext), nil
}

// EncryptWith seals data under a 32 byte key. The caller owns both slices.
func EncryptWith(data, key []byte) (types.Blob, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, types.EncryptionError{Err: err}
	}

	var blob []byte = make([]byte, aead.NonceSize(), aead.NonceSize()+len(data)+aead.Overhead())
	if _, err = io.ReadFull(randReader, blob); err != nil {
		return nil, types.EncryptionError{Err: err}
	}

	return aead.Seal(blob, blob, data, nil), nil
}

// DecryptWith verifies and opens a blob under a 32 byte key. The returned
// slice belongs to the caller, who should wipe it when done.
//
// Any failure of the tag check is reported as AuthenticationError and no
// plaintext is returned.
func DecryptWith(blob types.Blob, key []byte) ([]byte, error) {
	if len(blob) < types.NonceSize {
		return nil, types.MalformedInputError{Length: len(blob)}
	}

	aead, err := newAEAD(key)
	if err != nil {
		// a key of the wrong size can never have sealed this blob
		return nil, types.AuthenticationError{}
	}

	plaintext, err := aead.Open(nil, blob.Nonce(), blob.Ciphertext(), nil)
	if err != nil {
		return nil, types.AuthenticationError{}
	}

	if !utf8.Valid(plaintext) {
		var offset int = invalidUTF8Offset(plaintext)
		wipe(plaintext)
		return nil, types.EncodingError{Offset: offset}
	}
	return plaintext, nil
}

func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(b)
}

func wipe(b []byte) {
	memguard.WipeBytes(b)
}
