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
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hokaccha/go-prettyjson"
	"github.com/jedib0t/go-pretty/v6/table"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/notapipeline/passgen/pkg/vault"
)

// EntrySummary is what may be shown about an entry without decrypting it.
type EntrySummary struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Length  int       `json:"length"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Summarise strips the blobs from a list of entries.
func Summarise(entries []vault.Entry) []EntrySummary {
	var summaries []EntrySummary = make([]EntrySummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, EntrySummary{
			ID:      e.ID.String(),
			Name:    e.Name,
			Length:  e.Blob.PlaintextLen(),
			Created: e.Created,
			Updated: e.Updated,
		})
	}
	return summaries
}

// Table renders a list of entries as a text table.
func Table(w io.Writer, entries []vault.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "ID", "Length", "Updated"})
	for _, s := range Summarise(entries) {
		t.AppendRow(table.Row{s.Name, s.ID, s.Length, s.Updated.Format(time.RFC3339)})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(entries)})
	t.Render()
}

// JSON writes v as indented, coloured JSON.
func JSON(w io.Writer, v interface{}) (err error) {
	var b []byte
	if b, err = json.Marshal(v); err != nil {
		return err
	}

	var structure interface{}
	if err = json.Unmarshal(b, &structure); err != nil {
		return err
	}

	if b, err = formatter().Marshal(structure); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// Plain disables colour in JSON output, for when stdout is not a terminal.
var Plain bool

func formatter() *prettyjson.Formatter {
	f := prettyjson.NewFormatter()
	f.DisabledColor = Plain
	return f
}

// Secret renders a Kubernetes Secret manifest holding password under key.
func Secret(w io.Writer, name, namespace, key, password string) (err error) {
	if key == "" {
		key = "password"
	}

	secret := corev1.Secret{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Secret",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "passgen",
			},
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			key: []byte(password),
		},
	}

	var b []byte
	if b, err = yaml.Marshal(secret); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
