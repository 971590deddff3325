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
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/notapipeline/passgen/pkg/types"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// DeriveKey turns a passgen key into a 32 byte cipher key.
//
// The result depends only on the passphrase and the KDF settings, never on
// random input, so blobs written earlier can always be opened again.
func DeriveKey(passphrase []byte, kdf types.KDFInfo) ([]byte, error) {
	switch kdf.Type {
	case types.KDFTypeSHA256:
		var sum [types.KeySize]byte = sha256.Sum256(passphrase)
		key := make([]byte, types.KeySize)
		copy(key, sum[:])
		wipe(sum[:])
		return key, nil
	case types.KDFTypePBKDF2:
		if kdf.Iterations < 1 {
			return nil, types.KeyDerivationError{
				Err: fmt.Errorf("pbkdf2 requires at least 1 iteration, got %d", kdf.Iterations),
			}
		}
		return pbkdf2Key(passphrase, []byte(types.KDFSalt), kdf.Iterations, types.KeySize, sha256.New), nil
	case types.KDFTypeArgon2id:
		if kdf.Iterations < 1 || kdf.Memory == nil || *kdf.Memory < 1 ||
			kdf.Parallelism == nil || *kdf.Parallelism < 1 || *kdf.Parallelism > 255 {
			return nil, types.KeyDerivationError{
				Err: fmt.Errorf("argon2id requires iterations, memory and parallelism (1-255)"),
			}
		}
		if int64(kdf.Iterations) > math.MaxUint32 || int64(*kdf.Memory) > math.MaxUint32/1024 {
			return nil, types.KeyDerivationError{
				Err: fmt.Errorf("argon2id iterations must be at most %d and memory at most %d MiB",
					uint32(math.MaxUint32), uint32(math.MaxUint32/1024)),
			}
		}
		var salt [32]byte = sha256.Sum256([]byte(types.KDFSalt))
		return argon2IDKey(passphrase, salt[:], uint32(kdf.Iterations),
			uint32(*kdf.Memory*1024), uint8(*kdf.Parallelism), types.KeySize), nil
	default:
		return nil, types.KeyDerivationError{Err: fmt.Errorf("unsupported KDF type %d", kdf.Type)}
	}
}

// DefaultKDF returns sensible parameters for the given type. SHA-256 takes
// none.
func DefaultKDF(t types.KDFType) types.KDFInfo {
	switch t {
	case types.KDFTypePBKDF2:
		return types.KDFInfo{Type: t, Iterations: 600000}
	case types.KDFTypeArgon2id:
		return types.KDFInfo{
			Type:        t,
			Iterations:  3,
			Memory:      types.IntPtr(64),
			Parallelism: types.IntPtr(4),
		}
	}
	return types.KDFInfo{Type: types.KDFTypeSHA256}
}

var (
	pbkdf2Key   = pbkdf2.Key
	argon2IDKey = argon2.IDKey
)
