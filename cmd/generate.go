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

	"github.com/notapipeline/passgen/pkg/generator"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate a random password",
	Long: `Prints a random password without storing it. Defaults for length
	and character classes can be set in the generate section of the config
	file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.MergeGenerateCmd(generateFlags)
		password, err := generator.Generate(cfg.Generate)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), password)
		return err
	},
}

func addGeneratorFlags(c *cobra.Command) {
	c.Flags().IntVarP(&generateFlags.Length, "length", "l", 0, "password length (default from config, or 24)")
	c.Flags().BoolVar(&generateFlags.NoUpper, "no-upper", false, "exclude upper case letters")
	c.Flags().BoolVar(&generateFlags.NoLower, "no-lower", false, "exclude lower case letters")
	c.Flags().BoolVar(&generateFlags.NoDigits, "no-digits", false, "exclude digits")
	c.Flags().BoolVar(&generateFlags.NoSymbols, "no-symbols", false, "exclude symbols")
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addGeneratorFlags(generateCmd)
}
