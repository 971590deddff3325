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
package generator

import (
	cryptorand "crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/notapipeline/passgen/pkg/types"
)

const (
	Lower   = "abcdefghijklmnopqrstuvwxyz"
	Upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits  = "0123456789"
	Symbols = "!#$%&*+-=?@^_~.,:;"
)

const MaxLength = 4096

var randReader io.Reader = cryptorand.Reader

// Generate returns a random password built from the enabled character
// classes. Every enabled class appears at least once.
func Generate(opts types.GenerateCmd) (string, error) {
	var classes []string
	if !opts.NoLower {
		classes = append(classes, Lower)
	}
	if !opts.NoUpper {
		classes = append(classes, Upper)
	}
	if !opts.NoDigits {
		classes = append(classes, Digits)
	}
	if !opts.NoSymbols {
		classes = append(classes, Symbols)
	}

	if len(classes) == 0 {
		return "", fmt.Errorf("at least one character class must be enabled")
	}
	if opts.Length < len(classes) || opts.Length > MaxLength {
		return "", fmt.Errorf("length must be between %d and %d, got %d", len(classes), MaxLength, opts.Length)
	}

	var (
		all      string
		password []byte = make([]byte, opts.Length)
		err      error
	)
	for _, c := range classes {
		all += c
	}

	for i, c := range classes {
		if password[i], err = pick(c); err != nil {
			return "", err
		}
	}
	for i := len(classes); i < opts.Length; i++ {
		if password[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates so the guaranteed characters are not always first
	for i := len(password) - 1; i > 0; i-- {
		j, err := cryptorand.Int(randReader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		password[i], password[j.Int64()] = password[j.Int64()], password[i]
	}
	return string(password), nil
}

func pick(charset string) (byte, error) {
	n, err := cryptorand.Int(randReader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, fmt.Errorf("unable to read random data: %w", err)
	}
	return charset[n.Int64()], nil
}
