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
	"errors"
	"fmt"
)

// ErrorKind identifies which of the closed set of cipher failures occurred.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindKeyDerivation
	KindEncryption
	KindMalformedInput
	KindAuthentication
	KindEncoding
)

func (k ErrorKind) String() string {
	switch k {
	case KindKeyDerivation:
		return "KeyDerivation"
	case KindEncryption:
		return "Encryption"
	case KindMalformedInput:
		return "MalformedInput"
	case KindAuthentication:
		return "Authentication"
	case KindEncoding:
		return "Encoding"
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// KeyDerivationError is returned when the key derivation primitive fails or
// is misconfigured.
type KeyDerivationError struct {
	Err error
}

func (e KeyDerivationError) Error() string {
	return fmt.Sprintf("key derivation failed: %v", e.Err)
}

func (e KeyDerivationError) Unwrap() error {
	return e.Err
}

// EncryptionError is returned when a blob cannot be sealed. It is never
// retryable.
type EncryptionError struct {
	Err error
}

func (e EncryptionError) Error() string {
	return fmt.Sprintf("encryption failed: %v", e.Err)
}

func (e EncryptionError) Unwrap() error {
	return e.Err
}

// MalformedInputError is returned when a blob is too short to hold a nonce.
type MalformedInputError struct {
	Length int
}

func (e MalformedInputError) Error() string {
	return fmt.Sprintf("malformed blob: %d bytes is shorter than the %d byte nonce", e.Length, NonceSize)
}

// AuthenticationError is returned when the tag does not verify. The message
// is identical for a wrong key and for corrupted data.
type AuthenticationError struct{}

func (e AuthenticationError) Error() string {
	return "unable to decrypt password"
}

// EncodingError is returned when an authenticated plaintext is not valid
// UTF-8.
type EncodingError struct {
	Offset int
}

func (e EncodingError) Error() string {
	return fmt.Sprintf("decrypted password is not valid UTF-8 at byte %d", e.Offset)
}

// KindOf returns the ErrorKind for err, looking through wrapped errors.
func KindOf(err error) ErrorKind {
	var (
		kde  KeyDerivationError
		ence EncryptionError
		mie  MalformedInputError
		ae   AuthenticationError
		ende EncodingError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &kde):
		return KindKeyDerivation
	case errors.As(err, &ence):
		return KindEncryption
	case errors.As(err, &mie):
		return KindMalformedInput
	case errors.As(err, &ae):
		return KindAuthentication
	case errors.As(err, &ende):
		return KindEncoding
	}
	return KindUnknown
}
