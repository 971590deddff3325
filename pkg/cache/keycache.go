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
package cache

import (
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/notapipeline/passgen/pkg/crypto"
	"github.com/notapipeline/passgen/pkg/types"
)

// KeyCache holds the derived cipher key for the lifetime of the process.
//
// Initialization of this object is done in a singleton fashion so that a slow
// KDF is only paid once however many vault entries are processed. The derived
// key is sealed in a memguard enclave and the passgen key itself is never
// kept.
type KeyCache struct {
	KDF types.KDFInfo

	key *memguard.Enclave
}

var (
	keyCache *KeyCache
	lock     *sync.Mutex = &sync.Mutex{}
)

// These functions are referenced as variables to enable them to
// be mocked in tests
var (
	deriveKey = crypto.DeriveKey
	seal      = memguard.NewEnclave
)

// Instance gets the current instance or creates a new key cache.
//
// When instantiating, the passgen key in cfg is run through the configured
// KDF and the result sealed in an enclave. A second call returns the existing
// cache regardless of cfg; call Reset first to change keys.
var Instance = instance

func instance(cfg types.EncryptionConfig) (*KeyCache, error) {
	lock.Lock()
	defer lock.Unlock()
	if keyCache != nil {
		return keyCache, nil
	}

	c, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set passgen key: %w", err)
	}
	keyCache = c
	return keyCache, nil
}

// New creates a KeyCache that is not shared with the rest of the process.
// It is used when two keys are needed at once, such as during rekey.
func New(cfg types.EncryptionConfig) (*KeyCache, error) {
	var c *KeyCache = &KeyCache{KDF: cfg.KDF}
	if err := c.setKey([]byte(cfg.PassgenKey)); err != nil {
		return nil, err
	}
	return c, nil
}

// Reset the key cache
func Reset() {
	lock.Lock()
	defer lock.Unlock()
	keyCache = nil
}

// Encrypt seals a password with the cached key.
func (c *KeyCache) Encrypt(password string) (types.Blob, error) {
	var blob types.Blob
	err := c.withKey(func(key []byte) (err error) {
		data := []byte(password)
		defer memguard.WipeBytes(data)
		blob, err = crypto.EncryptWith(data, key)
		return
	})
	return blob, err
}

// Decrypt opens a blob with the cached key.
func (c *KeyCache) Decrypt(blob types.Blob) (string, error) {
	if len(blob) < types.NonceSize {
		return "", types.MalformedInputError{Length: len(blob)}
	}

	var password string
	err := c.withKey(func(key []byte) error {
		b, err := crypto.DecryptWith(blob, key)
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(b)
		password = string(b)
		return nil
	})
	return password, err
}

func (c *KeyCache) withKey(f func(key []byte) error) error {
	if c.key == nil {
		return types.KeyDerivationError{Err: fmt.Errorf("key cache is empty")}
	}

	buf, err := c.key.Open()
	if err != nil {
		return types.KeyDerivationError{Err: fmt.Errorf("failed to open key enclave: %w", err)}
	}
	defer buf.Destroy()
	return f(buf.Bytes())
}

// setKey derives the cipher key and seals it. Both the passphrase slice and
// the intermediate key are wiped before returning.
func (c *KeyCache) setKey(passphrase []byte) error {
	defer memguard.WipeBytes(passphrase)

	key, err := deriveKey(passphrase, c.KDF)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	// NewEnclave wipes key once sealed
	if c.key = seal(key); c.key == nil {
		memguard.WipeBytes(key)
		return types.KeyDerivationError{Err: fmt.Errorf("failed to seal key in memory")}
	}
	return nil
}
