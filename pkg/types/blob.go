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
package types

import (
	"encoding/base64"
)

var b64enc = base64.StdEncoding.Strict()

// Blob is the persisted form of an encrypted password.
//
// The layout is:
//
//	<nonce (12 bytes)><ciphertext (len(plaintext) bytes)><tag (16 bytes)>
//
// There is no version byte. Existing vaults depend on this layout staying
// byte for byte the same.
type Blob []byte

// Valid reports whether the blob is long enough to hold a nonce and a tag.
func (b Blob) Valid() bool {
	return len(b) >= MinBlobSize
}

// Nonce returns the nonce prefix, or nil if the blob is too short.
func (b Blob) Nonce() []byte {
	if len(b) < NonceSize {
		return nil
	}
	return b[:NonceSize]
}

// Ciphertext returns the sealed payload including the trailing tag.
func (b Blob) Ciphertext() []byte {
	if len(b) < NonceSize {
		return nil
	}
	return b[NonceSize:]
}

// PlaintextLen is the length of the password sealed in the blob.
func (b Blob) PlaintextLen() int {
	if !b.Valid() {
		return 0
	}
	return len(b) - MinBlobSize
}

func (b Blob) String() string {
	return b64enc.EncodeToString(b)
}

func (b Blob) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Blob) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*b = nil
		return nil
	}
	dst := make([]byte, b64enc.DecodedLen(len(data)))
	n, err := b64enc.Decode(dst, data)
	if err != nil {
		return err
	}
	*b = dst[:n]
	return nil
}

// ParseBlob decodes the base64 text form of a blob.
func ParseBlob(s string) (b Blob, err error) {
	err = b.UnmarshalText([]byte(s))
	return
}
