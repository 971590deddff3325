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
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/notapipeline/passgen/pkg/crypto"
	"github.com/notapipeline/passgen/pkg/tools"
	"github.com/notapipeline/passgen/pkg/types"
)

// These functions are referenced as variables to enable them to
// be mocked in tests
var (
	ConfigPath    func() string                          = getConfigPath
	getPassgenKey func(interactive bool) ([]byte, error) = tools.GetPassgenKey
)

const DefaultPasswordLength = 24

type Config struct {
	Encryption types.EncryptionConfig `yaml:"encryption"`
	Generate   types.GenerateCmd      `yaml:"generate"`

	Vault string `yaml:"vault" env:"PASSGEN_VAULT"`
	Debug bool   `yaml:"debug" env:"PASSGEN_DEBUG"`
	Quiet bool   `yaml:"quiet" env:"PASSGEN_QUIET"`
}

func New() *Config {
	return &Config{
		Generate: types.GenerateCmd{
			Length: DefaultPasswordLength,
		},
	}
}

// Load the config file from user local config directory
//
// The config file will be loaded from ~/.config/passgen/config.yaml if it
// exists and then the environment will be checked for overrides.
//
// Users are expected to call `MergeRootCmd` afterwards to override the config
// with command line options.
func (c *Config) Load() (err error) {
	if err = c.loadYaml(ConfigPath()); err != nil {
		return
	}
	if err = c.loadEnv(); err != nil {
		return
	}

	if c.Vault == "" {
		c.Vault = DefaultVaultPath()
	}
	return
}

// LoadFile is Load with an explicit config file. A missing file is an error.
func (c *Config) LoadFile(path string) (err error) {
	if _, err = os.Stat(path); err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	if err = c.loadYaml(path); err != nil {
		return
	}
	if err = c.loadEnv(); err != nil {
		return
	}
	if c.Vault == "" {
		c.Vault = DefaultVaultPath()
	}
	return
}

func (c *Config) loadYaml(cp string) (err error) {
	var yamlFile []byte

	if _, err = os.Stat(cp); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if yamlFile, err = os.ReadFile(cp); err != nil {
		return err
	}

	log.Debug().Str("path", cp).Msg("loading config file")
	if err = yaml.Unmarshal(yamlFile, c); err != nil {
		return fmt.Errorf("invalid config file %s: %w", cp, err)
	}
	return nil
}

func (c *Config) loadEnv() (err error) {
	return env.Parse(c)
}

// MergeRootCmd overrides the loaded configuration with command line flags.
func (c *Config) MergeRootCmd(cmd types.RootCmd) (err error) {
	if cmd.Vault != "" {
		c.Vault = cmd.Vault
	}
	if cmd.Debug {
		c.Debug = cmd.Debug
	}
	if cmd.Quiet {
		c.Quiet = cmd.Quiet
	}
	if cmd.KDF != "" {
		var t types.KDFType
		if err = t.UnmarshalText([]byte(cmd.KDF)); err != nil {
			return err
		}
		if t != c.Encryption.KDF.Type || c.Encryption.KDF.Iterations == 0 {
			c.Encryption.KDF = crypto.DefaultKDF(t)
		}
	}
	return nil
}

// MergeGenerateCmd overrides generator settings with any that were given on
// the command line.
func (c *Config) MergeGenerateCmd(cmd types.GenerateCmd) {
	if cmd.Length != 0 {
		c.Generate.Length = cmd.Length
	}
	c.Generate.NoUpper = c.Generate.NoUpper || cmd.NoUpper
	c.Generate.NoLower = c.Generate.NoLower || cmd.NoLower
	c.Generate.NoDigits = c.Generate.NoDigits || cmd.NoDigits
	c.Generate.NoSymbols = c.Generate.NoSymbols || cmd.NoSymbols
}

// EncryptionConfig returns the encryption settings, fetching the passgen key
// from a secret store or the user if neither the config file nor the
// environment supplied one.
func (c *Config) EncryptionConfig(interactive bool) (types.EncryptionConfig, error) {
	if c.Encryption.IsZero() {
		key, err := getPassgenKey(interactive)
		if err != nil {
			return types.EncryptionConfig{}, fmt.Errorf("no passgen key available: %w", err)
		}
		c.Encryption.PassgenKey = string(key)
	}
	return c.Encryption, nil
}

// Save writes the configuration back to disk. The passgen key is never
// written.
func (c *Config) Save() (err error) {
	var (
		data []byte
		out  Config = *c
	)
	out.Encryption.PassgenKey = ""
	if data, err = yaml.Marshal(out); err != nil {
		return err
	}

	var cp string = ConfigPath()
	if err = os.MkdirAll(filepath.Dir(cp), 0700); err != nil {
		return err
	}
	return os.WriteFile(cp, data, 0600)
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "passgen")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "passgen")
}

func getConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultVaultPath is where the vault lives unless configured otherwise.
func DefaultVaultPath() string {
	return filepath.Join(configDir(), "vault.yaml")
}
