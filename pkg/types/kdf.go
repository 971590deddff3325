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
	"fmt"
	"strconv"
	"strings"
)

// KDFType selects the derivation applied to the passgen key.
type KDFType int

func (t KDFType) String() string {
	switch t {
	case KDFTypeSHA256:
		return "sha256"
	case KDFTypePBKDF2:
		return "pbkdf2"
	case KDFTypeArgon2id:
		return "argon2id"
	}
	return fmt.Sprintf("KDFType(%d)", int(t))
}

func (t KDFType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *KDFType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "sha256":
		*t = KDFTypeSHA256
	case "pbkdf2":
		*t = KDFTypePBKDF2
	case "argon2id", "argon2":
		*t = KDFTypeArgon2id
	default:
		v, err := strconv.Atoi(string(text))
		if err != nil || v < int(KDFTypeSHA256) || v > int(KDFTypeArgon2id) {
			return fmt.Errorf("unknown kdf type %q", text)
		}
		*t = KDFType(v)
	}
	return nil
}

// KDFInfo describes how the passgen key is turned into a cipher key.
//
// The zero value is a single SHA-256 pass, which is what every existing vault
// was written with. Iterations, Memory (MiB) and Parallelism are only read by
// the slow derivations.
type KDFInfo struct {
	Type        KDFType `yaml:"type" json:"type" env:"PASSGEN_KDF"`
	Iterations  int     `yaml:"iterations,omitempty" json:"iterations,omitempty" env:"PASSGEN_KDF_ITERATIONS"`
	Memory      *int    `yaml:"memory,omitempty" json:"memory,omitempty" env:"PASSGEN_KDF_MEMORY"`
	Parallelism *int    `yaml:"parallelism,omitempty" json:"parallelism,omitempty" env:"PASSGEN_KDF_PARALLELISM"`
}

func IntPtr(i int) *int {
	return &i
}
