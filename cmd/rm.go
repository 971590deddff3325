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

	"github.com/notapipeline/passgen/pkg/vault"
)

// rmCmd represents the rm command
var rmCmd = &cobra.Command{
	Use:     "rm NAME",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a password from the vault",
	Long: `Removes the entry NAME from the vault. You will be asked to confirm
	unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string = args[0]
		if !entryFlags.Force && !confirm(fmt.Sprintf("Remove %q?", name)) {
			return fmt.Errorf("not removing %q", name)
		}

		if err := vault.Update(context.Background(), cfg.Vault, func(v *vault.Vault) error {
			return v.Remove(name)
		}); err != nil {
			return err
		}
		log.Info().Str("name", name).Msg("removed password")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().BoolVarP(&entryFlags.Force, "force", "f", false, "do not ask for confirmation")
}
