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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notapipeline/passgen/pkg/types"
)

// encryptCmd represents the encrypt command
var encryptCmd = &cobra.Command{
	Use:   "encrypt [PASSWORD|-]",
	Short: "Encrypt a password and print the blob",
	Long: `Encrypts a single password with the passgen key and prints the
	resulting blob as base64. Nothing is written to the vault.

	If no password is given, or the password is "-", it is read from stdin.

		passgen encrypt 'Tr0ub4dor&3'
		echo -n 'Tr0ub4dor&3' | passgen encrypt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		kc, err := keyCache()
		if err != nil {
			return err
		}

		var blob types.Blob
		if blob, err = kc.Encrypt(password); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), blob.String())
		return err
	},
}

// decryptCmd represents the decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt [BLOB|-]",
	Short: "Decrypt a base64 blob",
	Long: `Decrypts a blob written by "passgen encrypt" and prints the password.

	If no blob is given, or the blob is "-", it is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		var blob types.Blob
		if blob, err = types.ParseBlob(text); err != nil {
			return fmt.Errorf("blob is not valid base64: %w", err)
		}

		kc, err := keyCache()
		if err != nil {
			return err
		}

		password, err := kc.Decrypt(blob)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), password)
		return err
	},
}

func init() {
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
}
