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
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/notapipeline/passgen/pkg/generator"
	"github.com/notapipeline/passgen/pkg/types"
	"github.com/notapipeline/passgen/pkg/vault"
)

var (
	entryFlags    types.EntryCmd
	generateFlags types.GenerateCmd
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Store a password in the vault",
	Long: `Encrypts a password and stores it in the vault under NAME.

	The password can be given with --password, generated with --generate, or
	typed at the prompt. An existing entry is only replaced with --force.

		passgen add github --generate --length 32
		passgen add mail --password 'correct horse battery staple'

	When a password is generated it is printed once so it can be used straight
	away.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			name     string = args[0]
			password string = entryFlags.Password
		)

		switch {
		case entryFlags.Generate:
			cfg.MergeGenerateCmd(generateFlags)
			if password, err = generator.Generate(cfg.Generate); err != nil {
				return err
			}
		case password == "":
			var b []byte
			if b, err = getPassword("Password", "Enter the password to store as "+name, "Password: "); err != nil {
				return err
			}
			password = string(b)
		}

		kc, err := keyCache()
		if err != nil {
			return err
		}

		var blob types.Blob
		if blob, err = kc.Encrypt(password); err != nil {
			return err
		}

		err = vault.Update(context.Background(), cfg.Vault, func(v *vault.Vault) (err error) {
			var e vault.Entry
			if entryFlags.Force {
				e, err = v.Put(name, blob)
			} else {
				e, err = v.Add(name, blob)
			}
			if err == nil {
				log.Info().Str("name", e.Name).Str("id", e.ID.String()).Msg("stored password")
			}
			return err
		})
		if err != nil {
			return err
		}

		if entryFlags.Generate {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), password)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&entryFlags.Password, "password", "p", "", "password to store (visible in shell history, prefer the prompt)")
	addCmd.Flags().BoolVarP(&entryFlags.Generate, "generate", "g", false, "generate a random password")
	addCmd.Flags().BoolVarP(&entryFlags.Force, "force", "f", false, "replace an existing entry")
	addGeneratorFlags(addCmd)
}
