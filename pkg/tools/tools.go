/*
 *   Copyright 2022 Martin Proffitt <mproffitt@choclab.net>
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
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-pinentry"
)

// ReadPassword reads a password from the user via STDIN
//
// Ctrl-C returns liner.ErrPromptAborted.
func ReadPassword(prompt string) ([]byte, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()
	var (
		password string
		err      error
	)
	if password, err = line.PasswordPrompt(prompt); err != nil {
		return nil, err
	}
	return []byte(password), nil
}

// ReadLine reads a line of text from the user via STDIN
func ReadLine(prompt string) ([]byte, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()
	var (
		password string
		err      error
	)
	if password, err = line.Prompt(prompt); err != nil {
		return nil, err
	}
	return []byte(password), nil
}

// PassgenKeyName is the name the passgen key is stored under in KWallet and
// the Secret Service.
const PassgenKeyName = "PASSGEN_KEY"

// errStoreDisabled is returned by a secret store that has been switched off
// with USE_KWALLET or USE_LIBSECRET.
var errStoreDisabled = errors.New("secret store disabled")

// getSecret gets a secret from the secrets store
var getSecret func(what string) string = func(what string) string {
	var (
		value string
		err   error
	)

	if value, err = getSecretFromKWallet(what); err == nil && value != "" {
		return value
	}
	if err != nil {
		log.Debug().Err(err).Msg("kwallet lookup failed")
	}

	if value, err = getSecretFromSecretsService(what); err == nil && value != "" {
		return value
	}
	if err != nil {
		log.Debug().Err(err).Msg("secret service lookup failed")
	}
	return ""
}

// GetPassgenKey gets the passgen key from a secrets store or the user
//
// Order is:
// 1. KWallet
// 2. Secret Service (libsecret)
// 3. User input, only if interactive is set
//
// The environment is not consulted here; PASSGEN_KEY is read by the config
// loader.
func GetPassgenKey(interactive bool) ([]byte, error) {
	if s := getSecret(PassgenKeyName); s != "" {
		return []byte(s), nil
	}

	if !interactive {
		return nil, fmt.Errorf("passgen key not found in any secret store")
	}
	return GetPassword("Passgen key", "Please enter your passgen key", "Passgen key: ")
}

// GetPassword gets a password from the user
//
// This is a mockable entry point for testing and wraps the password function.
var GetPassword func(title, description, prompt string) ([]byte, error) = password

// password asks the user for a password using pinentry if available and
// falls back to stdin if not.
func password(title, description, prompt string) ([]byte, error) {
	var (
		err         error
		client      *pinentry.Client
		password    string
		usePinentry bool = true
	)

	if client, err = GetPinentry(
		pinentry.WithBinaryNameFromGnuPGAgentConf(),
		pinentry.WithDesc(description),
		pinentry.WithGPGTTY(),
		pinentry.WithPrompt(prompt),
		pinentry.WithTitle(title),
	); err != nil {
		var b []byte
		if b, err = readPassword(prompt); err != nil {
			return nil, err
		}
		password = string(b)
		usePinentry = false
	}

	if usePinentry {
		defer client.Close()
		password, _, err = client.GetPIN()
		if pinentry.IsCancelled(err) {
			return nil, fmt.Errorf("Cancelled")
		}
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return nil, fmt.Errorf("No password provided")
	}
	return []byte(password), err
}

// GetPinentry gets a pinentry client
//
// This is a mockable entry point for testing and wraps the pinentry client.
var GetPinentry func(options ...pinentry.ClientOption) (c *pinentry.Client, err error) = func(options ...pinentry.ClientOption) (c *pinentry.Client, err error) {
	return pinentry.NewClient(options...)
}

var readPassword func(prompt string) ([]byte, error) = func(prompt string) ([]byte, error) {
	return ReadPassword(prompt)
}
