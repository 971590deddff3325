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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
		message  string
	}{
		{
			name:     "nil",
			err:      nil,
			expected: KindUnknown,
		},
		{
			name:     "key derivation",
			err:      KeyDerivationError{Err: errors.New("bad kdf")},
			expected: KindKeyDerivation,
			message:  "key derivation failed: bad kdf",
		},
		{
			name:     "encryption",
			err:      EncryptionError{Err: errors.New("no entropy")},
			expected: KindEncryption,
			message:  "encryption failed: no entropy",
		},
		{
			name:     "malformed input",
			err:      MalformedInputError{Length: 3},
			expected: KindMalformedInput,
			message:  "malformed blob: 3 bytes is shorter than the 12 byte nonce",
		},
		{
			name:     "authentication",
			err:      AuthenticationError{},
			expected: KindAuthentication,
			message:  "unable to decrypt password",
		},
		{
			name:     "encoding",
			err:      EncodingError{Offset: 4},
			expected: KindEncoding,
			message:  "decrypted password is not valid UTF-8 at byte 4",
		},
		{
			name:     "wrapped authentication",
			err:      fmt.Errorf("entry %q: %w", "github", AuthenticationError{}),
			expected: KindAuthentication,
			message:  "entry \"github\": unable to decrypt password",
		},
		{
			name:     "unrelated",
			err:      errors.New("something else"),
			expected: KindUnknown,
			message:  "something else",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, KindOf(test.err))
			if test.err != nil {
				assert.Equal(t, test.message, test.err.Error())
			}
		})
	}
}

func TestKeyDerivationErrorUnwraps(t *testing.T) {
	inner := errors.New("inner")
	var err error = KeyDerivationError{Err: inner}
	assert.True(t, errors.Is(err, inner))
}

func TestKDFType_UnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected KDFType
		err      bool
	}{
		{input: "", expected: KDFTypeSHA256},
		{input: "SHA256", expected: KDFTypeSHA256},
		{input: "pbkdf2", expected: KDFTypePBKDF2},
		{input: " argon2id ", expected: KDFTypeArgon2id},
		{input: "argon2", expected: KDFTypeArgon2id},
		{input: "1", expected: KDFTypePBKDF2},
		{input: "scrypt", err: true},
		{input: "7", err: true},
	}

	for _, test := range tests {
		var k KDFType
		err := k.UnmarshalText([]byte(test.input))
		if test.err {
			assert.Error(t, err, test.input)
			continue
		}
		assert.NoError(t, err, test.input)
		assert.Equal(t, test.expected, k, test.input)
		assert.Equal(t, test.expected.String(), k.String())
	}
}
