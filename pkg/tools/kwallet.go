/*
 *   Copyright 2022 Martin Proffitt <mproffitt@choclab.net>
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
package tools

import (
	"os"

	"r00t2.io/gokwallet"
)

const (
	walletAppID  = "passgen"
	walletFolder = "Passwords"
	walletMap    = "passgen"
)

var newWalletManager func(r *gokwallet.RecurseOpts, appID ...string) (*gokwallet.WalletManager, error) = gokwallet.NewWalletManager

// getSecretFromKWallet looks for what in the passgen map of the Passwords
// folder in every wallet. It is skipped when USE_LIBSECRET is set.
func getSecretFromKWallet(what string) (string, error) {
	if os.Getenv("USE_LIBSECRET") != "" {
		return "", errStoreDisabled
	}

	var (
		err error
		r   gokwallet.RecurseOpts = *gokwallet.DefaultRecurseOpts
		wm  *gokwallet.WalletManager
	)

	r.AllWalletItems = true
	if wm, err = newWalletManager(&r, walletAppID); err != nil {
		return "", err
	}

	for _, w := range wm.Wallets {
		f, ok := w.Folders[walletFolder]
		if !ok {
			continue
		}
		if m, ok := f.Maps[walletMap]; ok {
			if value, ok := m.Value[what]; ok {
				return value, nil
			}
		}
	}
	return "", nil
}
