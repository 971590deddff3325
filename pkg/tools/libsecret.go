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

	"r00t2.io/gosecret"
)

const secretPath = "/Passwords/passgen"

type secretService interface {
	SearchItems(attributes map[string]string) ([]*gosecret.Item, []*gosecret.Item, error)
	Close() error
}

var newSecretService func() (secretService, error) = func() (secretService, error) {
	service, err := gosecret.NewService()
	if err != nil {
		return nil, err
	}
	service.Legacy = true
	return service, nil
}

// getSecretFromSecretsService looks for what in the attributes of unlocked
// items stored under /Passwords/passgen. It is skipped when USE_KWALLET is
// set.
func getSecretFromSecretsService(what string) (string, error) {
	if os.Getenv("USE_KWALLET") != "" {
		return "", errStoreDisabled
	}

	var (
		err           error
		service       secretService
		unlockedItems []*gosecret.Item
	)

	if service, err = newSecretService(); err != nil {
		return "", err
	}
	defer service.Close()

	if unlockedItems, _, err = service.SearchItems(map[string]string{"Path": secretPath}); err != nil {
		return "", err
	}

	for _, item := range unlockedItems {
		if value, ok := item.Attrs[what]; ok {
			return value, nil
		}
	}
	return "", nil
}
