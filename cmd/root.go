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
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/notapipeline/passgen/pkg/cache"
	"github.com/notapipeline/passgen/pkg/config"
	"github.com/notapipeline/passgen/pkg/output"
	"github.com/notapipeline/passgen/pkg/types"
)

var (
	rootFlags types.RootCmd
	cfg       *config.Config
)

var exit func(code int) = os.Exit

// fatal reports an error on stderr and exits. It bypasses the logger so that
// --quiet never hides a failure.
var fatal func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	rootCmd.PrintErrf("Error: "+format+"\n", v...)
	exit(1)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "passgen",
	Short: "Encrypted password store",
	Long: `
passgen keeps passwords in a local vault, each one sealed with
ChaCha20-Poly1305 under a key derived from your passgen key.

The passgen key is read from the config file, the PASSGEN_KEY environment
variable, KWallet or the Secret Service, in that order. If none of them has
it you will be asked for it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(rootFlags)
		if err := loadConfig(); err != nil {
			return err
		}
		setupLogging(types.RootCmd{Debug: cfg.Debug, Quiet: cfg.Quiet})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupLogging(types.RootCmd{})
	if err := rootCmd.Execute(); err != nil {
		fatal("%s", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.Config, "config", "", "config file (default is $HOME/.config/passgen/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.Vault, "vault", "", "vault file (default is $HOME/.config/passgen/vault.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.KDF, "kdf", "", "key derivation for the passgen key: sha256, pbkdf2 or argon2id")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.Debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.Quiet, "quiet", false, "disable all logging")
}

func setupLogging(f types.RootCmd) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	switch {
	case f.Quiet:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case f.Debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func loadConfig() (err error) {
	cfg = config.New()
	if rootFlags.Config != "" {
		err = cfg.LoadFile(rootFlags.Config)
	} else {
		err = cfg.Load()
	}
	if err != nil {
		return err
	}
	if err = cfg.MergeRootCmd(rootFlags); err != nil {
		return err
	}

	if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		output.Plain = true
	}
	return nil
}

// keyCache returns the process wide key cache, asking for the passgen key
// if it has not been configured.
func keyCache() (*cache.KeyCache, error) {
	enc, err := cfg.EncryptionConfig(interactive)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("kdf", enc.KDF.Type.String()).Msg("deriving key")
	return cache.Instance(enc)
}
