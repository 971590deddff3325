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

var listOutput string

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the entries in the vault",
	Long: `Lists the names, ids, password lengths and update times of every
	entry in the vault. Nothing is decrypted and the passgen key is not needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(cfg.Vault)
		if err != nil {
			return err
		}

		switch listOutput {
		case "", "table":
			output.Table(cmd.OutOrStdout(), v.List())
		case "json":
			return output.JSON(cmd.OutOrStdout(), output.Summarise(v.List()))
		default:
			return fmt.Errorf("unknown output format %q", listOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "output format: table or json")
}
