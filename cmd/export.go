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
	"os"

	"github.com/awnumar/memguard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/notapipeline/passgen/pkg/export"
	"github.com/notapipeline/passgen/pkg/vault"
)

var importOverwrite bool

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write an encrypted backup of the vault",
	Long: `Writes every entry to FILE as an ASCII armored OpenPGP message
	protected by a backup passphrase. The passwords inside stay encrypted with
	the passgen key, so the backup is useless without both.

	The backup can be read back with "passgen import", or inspected with

		gpg --decrypt FILE`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		v, err := vault.Open(cfg.Vault)
		if err != nil {
			return err
		}

		passphrase, err := getPassword("Backup passphrase", "Enter a passphrase to protect "+args[0], "Passphrase: ")
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(passphrase)

		f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()

		if err = export.Export(f, v, passphrase); err != nil {
			return err
		}
		log.Info().Int("entries", v.Len()).Str("file", args[0]).Msg("exported vault")
		return nil
	},
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Restore entries from an encrypted backup",
	Long: `Reads a backup written by "passgen export" and merges it into the
	vault. Entries that already exist are kept unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		passphrase, err := getPassword("Backup passphrase", "Enter the passphrase for "+args[0], "Passphrase: ")
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(passphrase)

		entries, err := export.Import(f, passphrase)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		var written []string
		if err = vault.Update(context.Background(), cfg.Vault, func(v *vault.Vault) (err error) {
			written, err = v.Import(entries, importOverwrite)
			return err
		}); err != nil {
			return err
		}

		log.Info().Int("imported", len(written)).Int("skipped", len(entries)-len(written)).Msg("imported backup")
		for _, name := range written {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVarP(&importOverwrite, "force", "f", false, "replace entries that already exist")
}
