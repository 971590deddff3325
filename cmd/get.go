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

	"github.com/notapipeline/passgen/pkg/output"
	"github.com/notapipeline/passgen/pkg/vault"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Decrypt a password from the vault",
	Long: `Decrypts the entry NAME and prints it.

	Output formats:

		text    the password only (default)
		json    name, id and password
		secret  a Kubernetes Secret manifest, see --namespace and --key

	For example:

		passgen get github --output secret --namespace ci | kubectl apply -f -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(cfg.Vault)
		if err != nil {
			return err
		}

		e, err := v.Get(args[0])
		if err != nil {
			return err
		}

		kc, err := keyCache()
		if err != nil {
			return err
		}

		password, err := kc.Decrypt(e.Blob)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}

		var w = cmd.OutOrStdout()
		switch entryFlags.Output {
		case "", "text":
			_, err = fmt.Fprintln(w, password)
		case "json":
			err = output.JSON(w, map[string]string{
				"name":     e.Name,
				"id":       e.ID.String(),
				"password": password,
			})
		case "secret":
			err = output.Secret(w, e.Name, entryFlags.Namespace, entryFlags.Key, password)
		default:
			err = fmt.Errorf("unknown output format %q", entryFlags.Output)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&entryFlags.Output, "output", "o", "text", "output format: text, json or secret")
	getCmd.Flags().StringVarP(&entryFlags.Namespace, "namespace", "n", "", "namespace for --output secret")
	getCmd.Flags().StringVarP(&entryFlags.Key, "key", "k", "password", "data key for --output secret")
}
