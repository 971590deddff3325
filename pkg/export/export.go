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
// Package export writes and reads vault backups.
//
// A backup is the vault YAML wrapped in an ASCII-armored, symmetrically
// encrypted OpenPGP message, so it can also be opened with `gpg --decrypt`.
// The blobs inside stay sealed with the passgen key; the backup passphrase
// only protects the file itself.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/notapipeline/passgen/pkg/vault"
)

const (
	blockType = "PGP MESSAGE"
	fileName  = "passgen-vault.yaml"
)

// ErrBadBackup is returned when a backup cannot be decrypted. A wrong
// passphrase and a damaged file are not told apart.
var ErrBadBackup = errors.New("wrong passphrase or corrupted backup")

var config = &packet.Config{
	DefaultCipher:          packet.CipherAES256,
	DefaultCompressionAlgo: packet.CompressionZLIB,
}

// Export writes every entry in v to w.
func Export(w io.Writer, v *vault.Vault, passphrase []byte) (err error) {
	if len(passphrase) == 0 {
		return fmt.Errorf("a backup passphrase is required")
	}

	var data []byte
	if data, err = v.Marshal(); err != nil {
		return err
	}

	var armored io.WriteCloser
	if armored, err = armor.Encode(w, blockType, map[string]string{"Comment": "passgen vault backup"}); err != nil {
		return err
	}

	var plaintext io.WriteCloser
	if plaintext, err = openpgp.SymmetricallyEncrypt(armored, passphrase, &openpgp.FileHints{
		IsBinary: true,
		FileName: fileName,
	}, config); err != nil {
		armored.Close()
		return fmt.Errorf("unable to start backup: %w", err)
	}

	if _, err = plaintext.Write(data); err != nil {
		plaintext.Close()
		armored.Close()
		return err
	}
	if err = plaintext.Close(); err != nil {
		armored.Close()
		return err
	}
	return armored.Close()
}

// Import reads the entries from a backup written by Export.
func Import(r io.Reader, passphrase []byte) ([]vault.Entry, error) {
	block, err := armor.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("not an armored backup: %w", err)
	}
	if block.Type != blockType {
		return nil, fmt.Errorf("unexpected armor block %q", block.Type)
	}

	var prompted bool
	prompt := func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if prompted || !symmetric {
			return nil, ErrBadBackup
		}
		prompted = true
		return passphrase, nil
	}

	md, err := openpgp.ReadMessage(block.Body, nil, prompt, config)
	if err != nil {
		if errors.Is(err, ErrBadBackup) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBadBackup, err)
	}

	// the integrity check only runs once the body has been read to EOF
	data, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBackup, err)
	}
	return vault.Unmarshal(data)
}
