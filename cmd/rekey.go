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
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/notapipeline/passgen/pkg/cache"
	"github.com/notapipeline/passgen/pkg/crypto"
	"github.com/notapipeline/passgen/pkg/types"
	"github.com/notapipeline/passgen/pkg/vault"
)

var rekeyKDF string

// rekeyCmd represents the rekey command
var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Re-encrypt every entry under a new passgen key",
	Long: `Decrypts every entry with the current passgen key and encrypts it
	again with a new one. --kdf describes the current key and --new-kdf the
	derivation for the new one, so rekey is also how a vault moves from sha256
	to argon2id:

		passgen rekey --new-kdf argon2id

	Nothing is written unless every entry decrypts. Remember to update the
	passgen key in your config file, environment or wallet afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var kdf types.KDFInfo = cfg.Encryption.KDF
		if rekeyKDF != "" {
			var t types.KDFType
			if err := t.UnmarshalText([]byte(rekeyKDF)); err != nil {
				return err
			}
			kdf = crypto.DefaultKDF(t)
		}

		current, err := keyCache()
		if err != nil {
			return err
		}

		newKey, err := getPassword("New passgen key", "Enter the new passgen key", "New key: ")
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(newKey)

		confirmKey, err := getPassword("New passgen key", "Repeat the new passgen key", "Repeat: ")
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(confirmKey)
		if !bytes.Equal(newKey, confirmKey) {
			return errors.New("passgen keys do not match")
		}

		next, err := cache.New(types.EncryptionConfig{
			PassgenKey: string(newKey),
			KDF:        kdf,
		})
		if err != nil {
			return err
		}

		var count int
		err = vault.Update(context.Background(), cfg.Vault, func(v *vault.Vault) error {
			var (
				entries = v.List()
				blobs   = make([]types.Blob, len(entries))
			)
			for i, e := range entries {
				password, err := current.Decrypt(e.Blob)
				if err != nil {
					return fmt.Errorf("%s: %w", e.Name, err)
				}
				if blobs[i], err = next.Encrypt(password); err != nil {
					return fmt.Errorf("%s: %w", e.Name, err)
				}
			}
			for i, e := range entries {
				if _, err := v.Put(e.Name, blobs[i]); err != nil {
					return err
				}
			}
			count = len(entries)
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().Int("entries", count).Str("kdf", kdf.Type.String()).Msg("vault rekeyed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rekeyCmd)
	rekeyCmd.Flags().StringVar(&rekeyKDF, "new-kdf", "", "key derivation for the new passgen key (default is --kdf)")
}
