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
	"io"
	"os"
	"strings"

	"github.com/notapipeline/passgen/pkg/tools"
)

// interactive allows prompting for secrets. Tests switch it off.
var interactive bool = true

var getPassword func(title, description, prompt string) ([]byte, error) = func(title, description, prompt string) ([]byte, error) {
	if !interactive {
		return nil, fmt.Errorf("%s required but prompting is disabled", strings.ToLower(title))
	}
	return tools.GetPassword(title, description, prompt)
}

var readLine func(prompt string) ([]byte, error) = tools.ReadLine

// readInput returns the first argument, or all of stdin if the argument is
// "-" or absent.
func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(question string) bool {
	if !interactive {
		return false
	}
	b, err := readLine(question + " [y/N] ")
	if err != nil {
		return false
	}
	var answer string = strings.ToLower(strings.TrimSpace(string(b)))
	return answer == "y" || answer == "yes"
}
