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
	"bytes"
	"crypto/cipher"
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/notapipeline/passgen/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cfg      = types.EncryptionConfig{PassgenKey: "my-secret-key"}
	wrongCfg = types.EncryptionConfig{PassgenKey: "wrong-key"}
)

func TestEncryptDecryptScenario(t *testing.T) {
	blob, err := Encrypt("Tr0ub4dor&3", cfg)
	require.NoError(t, err)
	assert.Len(t, blob, 39)

	password, err := Decrypt(blob, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Tr0ub4dor&3", password)

	password, err = Decrypt(blob, wrongCfg)
	assert.Equal(t, "", password)
	assert.IsType(t, types.AuthenticationError{}, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty string", ""},
		{"simple string", "hello world"},
		{"special characters", "p@$$w0rd!#%^&*()"},
		{"unicode", "こんにちは世界"},
		{"emoji", "🔐 vault"},
		{"long string", string(bytes.Repeat([]byte("abcdefgh"), 512))},
	}

	for _, kdf := range []types.KDFInfo{
		{},
		{Type: types.KDFTypePBKDF2, Iterations: 10},
		{Type: types.KDFTypeArgon2id, Iterations: 1, Memory: types.IntPtr(1), Parallelism: types.IntPtr(1)},
	} {
		c := types.EncryptionConfig{PassgenKey: "my-secret-key", KDF: kdf}
		for _, test := range tests {
			t.Run(kdf.Type.String()+"/"+test.name, func(t *testing.T) {
				blob, err := Encrypt(test.plaintext, c)
				require.NoError(t, err)
				assert.Len(t, blob, types.NonceSize+len(test.plaintext)+types.TagSize)
				assert.True(t, blob.Valid())

				decrypted, err := Decrypt(blob, c)
				require.NoError(t, err)
				assert.Equal(t, test.plaintext, decrypted)
			})
		}
	}
}

func TestEncryptProducesDifferentBlobs(t *testing.T) {
	first, err := Encrypt("same input", cfg)
	require.NoError(t, err)
	second, err := Encrypt("same input", cfg)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, first.Nonce(), second.Nonce())

	for _, blob := range []types.Blob{first, second} {
		password, err := Decrypt(blob, cfg)
		require.NoError(t, err)
		assert.Equal(t, "same input", password)
	}
}

func TestDecryptDetectsEveryBitFlip(t *testing.T) {
	blob, err := Encrypt("Tr0ub4dor&3", cfg)
	require.NoError(t, err)

	for i := 0; i < len(blob)*8; i++ {
		var tampered types.Blob = append(types.Blob{}, blob...)
		tampered[i/8] ^= 1 << (i % 8)

		password, err := Decrypt(tampered, cfg)
		if password != "" {
			t.Fatalf("bit %d: expected no plaintext but got %q", i, password)
		}
		if types.KindOf(err) != types.KindAuthentication {
			t.Fatalf("bit %d: expected AuthenticationError but got %v", i, err)
		}
	}
}

func TestDecryptWrongKeyMatchesCorruptionMessage(t *testing.T) {
	blob, err := Encrypt("secret data", cfg)
	require.NoError(t, err)

	_, wrongKey := Decrypt(blob, wrongCfg)

	blob[len(blob)-1] ^= 0xff
	_, corrupted := Decrypt(blob, cfg)

	require.Error(t, wrongKey)
	require.Error(t, corrupted)
	assert.Equal(t, wrongKey.Error(), corrupted.Error())
	assert.NotContains(t, wrongKey.Error(), "my-secret-key")
	assert.NotContains(t, wrongKey.Error(), "secret data")
}

func TestDecryptMinimumLength(t *testing.T) {
	for n := 0; n < types.NonceSize; n++ {
		_, err := Decrypt(make(types.Blob, n), cfg)
		var mie types.MalformedInputError
		if !errors.As(err, &mie) {
			t.Fatalf("length %d: expected MalformedInputError but got %v", n, err)
		}
		assert.Equal(t, n, mie.Length)
	}

	_, err := Decrypt(nil, cfg)
	assert.Equal(t, types.KindMalformedInput, types.KindOf(err))

	// a nonce with a short or empty payload is not malformed, it just cannot
	// authenticate
	for n := types.NonceSize; n < types.MinBlobSize; n++ {
		_, err := Decrypt(make(types.Blob, n), cfg)
		assert.Equal(t, types.KindAuthentication, types.KindOf(err), "length %d", n)
	}
}

func TestDecryptMalformedBeforeKeyDerivation(t *testing.T) {
	badKDF := types.EncryptionConfig{PassgenKey: "k", KDF: types.KDFInfo{Type: 999}}
	_, err := Decrypt(types.Blob{1, 2, 3}, badKDF)
	assert.Equal(t, types.KindMalformedInput, types.KindOf(err))

	_, err = Decrypt(make(types.Blob, types.MinBlobSize), badKDF)
	assert.Equal(t, types.KindKeyDerivation, types.KindOf(err))

	_, err = Encrypt("x", badKDF)
	assert.Equal(t, types.KindKeyDerivation, types.KindOf(err))
}

func TestDecryptInvalidUTF8(t *testing.T) {
	key, err := DeriveKey([]byte(cfg.PassgenKey), cfg.KDF)
	require.NoError(t, err)

	blob, err := EncryptWith([]byte{'o', 'k', 0xff, 0xfe}, key)
	require.NoError(t, err)

	password, err := Decrypt(blob, cfg)
	assert.Equal(t, "", password)

	var ende types.EncodingError
	require.True(t, errors.As(err, &ende), "expected EncodingError but got %v", err)
	assert.Equal(t, 2, ende.Offset)
}

func TestEncryptRandomSourceFailure(t *testing.T) {
	orig := randReader
	defer func() {
		randReader = orig
	}()
	randReader = iotest.ErrReader(fmt.Errorf("entropy exhausted"))

	blob, err := Encrypt("password", cfg)
	assert.Nil(t, blob)
	assert.Equal(t, types.KindEncryption, types.KindOf(err))
	assert.EqualError(t, err, "encryption failed: entropy exhausted")
}

func TestEncryptCipherFailure(t *testing.T) {
	orig := newAEAD
	defer func() {
		newAEAD = orig
	}()
	newAEAD = func(key []byte) (cipher.AEAD, error) {
		return nil, fmt.Errorf("cipher unavailable")
	}

	blob, err := Encrypt("password", cfg)
	assert.Nil(t, blob)
	assert.Equal(t, types.KindEncryption, types.KindOf(err))
}

func TestEncryptWithWrongKeySize(t *testing.T) {
	_, err := EncryptWith([]byte("password"), []byte("short"))
	assert.Equal(t, types.KindEncryption, types.KindOf(err))

	_, err = DecryptWith(make(types.Blob, types.MinBlobSize), []byte("short"))
	assert.Equal(t, types.KindAuthentication, types.KindOf(err))
}

func TestEncryptDoesNotModifyInput(t *testing.T) {
	var (
		data = []byte("password")
		key  = bytes.Repeat([]byte{7}, types.KeySize)
	)
	_, err := EncryptWith(data, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("password"), data)
	assert.Equal(t, bytes.Repeat([]byte{7}, types.KeySize), key)
}

func TestConcurrentEncryptDecrypt(t *testing.T) {
	var (
		wg   sync.WaitGroup
		errs = make(chan error, 32)
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var (
				c        = types.EncryptionConfig{PassgenKey: fmt.Sprintf("key-%d", i%4)}
				expected = fmt.Sprintf("password-%d", i)
			)
			blob, err := Encrypt(expected, c)
			if err != nil {
				errs <- err
				return
			}
			password, err := Decrypt(blob, c)
			if err != nil {
				errs <- err
				return
			}
			if password != expected {
				errs <- fmt.Errorf("expected %q but got %q", expected, password)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestInvalidUTF8Offset(t *testing.T) {
	assert.Equal(t, 0, invalidUTF8Offset([]byte{0xff}))
	assert.Equal(t, 3, invalidUTF8Offset([]byte("abc\xc3")))
	assert.Equal(t, 3, invalidUTF8Offset([]byte("abc")))
}
