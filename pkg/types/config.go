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

// EncryptionConfig carries everything the cipher needs. It is always passed
// explicitly; nothing in the crypto package reads the environment.
type EncryptionConfig struct {
	PassgenKey string  `yaml:"passgen_key" env:"PASSGEN_KEY"`
	KDF        KDFInfo `yaml:"kdf"`
}

// IsZero reports whether no passgen key has been supplied.
func (c EncryptionConfig) IsZero() bool {
	return c.PassgenKey == ""
}

// GenerateCmd holds the password generator settings.
type GenerateCmd struct {
	Length    int  `yaml:"length" env:"PASSGEN_LENGTH"`
	NoUpper   bool `yaml:"noupper" env:"PASSGEN_NO_UPPER"`
	NoLower   bool `yaml:"nolower" env:"PASSGEN_NO_LOWER"`
	NoDigits  bool `yaml:"nodigits" env:"PASSGEN_NO_DIGITS"`
	NoSymbols bool `yaml:"nosymbols" env:"PASSGEN_NO_SYMBOLS"`
}

// RootCmd holds flags shared by every command.
type RootCmd struct {
	Config string
	Vault  string
	KDF    string
	Debug  bool
	Quiet  bool
}

// EntryCmd holds flags for commands acting on a single vault entry.
type EntryCmd struct {
	Name      string
	Password  string
	Generate  bool
	Force     bool
	Output    string
	Namespace string
	Key       string
}
