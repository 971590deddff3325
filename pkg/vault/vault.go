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
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"sigs.k8s.io/yaml"

	"github.com/notapipeline/passgen/pkg/types"
)

var (
	ErrNotFound  = errors.New("entry not found")
	ErrExists    = errors.New("entry already exists")
	ErrInvalid   = errors.New("invalid entry")
	ErrMalformed = errors.New("refusing to store malformed blob")
)

// FileVersion is written at the top of every vault file. It versions the
// file wrapper only; the blobs inside have no version.
const FileVersion = 1

var now func() time.Time = time.Now

// Entry is a single named password. The vault never holds a plaintext.
type Entry struct {
	ID      uuid.UUID  `json:"id"`
	Name    string     `json:"name"`
	Blob    types.Blob `json:"blob"`
	Created time.Time  `json:"created"`
	Updated time.Time  `json:"updated"`
}

type vaultFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Vault is a set of encrypted entries backed by a YAML file.
type Vault struct {
	path    string
	mu      sync.RWMutex
	entries map[string]Entry
}

// Open loads the vault at path. A missing file yields an empty vault which
// will be created on Save.
func Open(path string) (*Vault, error) {
	var v *Vault = &Vault{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("vault", path).Msg("vault does not exist yet")
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read vault: %w", err)
	}

	var f vaultFile
	if err = yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse vault %s: %w", path, err)
	}
	if f.Version > FileVersion {
		return nil, fmt.Errorf("vault %s has version %d, newest supported is %d", path, f.Version, FileVersion)
	}

	for _, e := range f.Entries {
		v.entries[e.Name] = e
	}
	log.Debug().Str("vault", path).Int("entries", len(v.entries)).Msg("loaded vault")
	return v, nil
}

// Path returns the file backing the vault.
func (v *Vault) Path() string {
	return v.path
}

// Add stores a new entry. It fails with ErrExists if name is taken.
func (v *Vault) Add(name string, blob types.Blob) (Entry, error) {
	if err := validate(name, blob); err != nil {
		return Entry{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[name]; ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrExists, name)
	}
	return v.add(name, blob), nil
}

// add inserts a new entry. The caller holds mu.
func (v *Vault) add(name string, blob types.Blob) Entry {
	var t time.Time = now().UTC()
	e := Entry{
		ID:      uuid.New(),
		Name:    name,
		Blob:    blob,
		Created: t,
		Updated: t,
	}
	v.entries[name] = e
	return e
}

// Put stores an entry, replacing the blob of an existing entry with the same
// name. The ID and creation time of an existing entry are kept.
func (v *Vault) Put(name string, blob types.Blob) (Entry, error) {
	if err := validate(name, blob); err != nil {
		return Entry{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[name]
	if !ok {
		return v.add(name, blob), nil
	}

	e.Blob = blob
	e.Updated = now().UTC()
	v.entries[name] = e
	return e, nil
}

// Import merges entries read from a backup. Existing names are only replaced
// when overwrite is set. It returns the names that were written.
func (v *Vault) Import(entries []Entry, overwrite bool) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var written []string = make([]string, 0, len(entries))
	for _, e := range entries {
		if err := validate(e.Name, e.Blob); err != nil {
			return written, err
		}
		if _, ok := v.entries[e.Name]; ok && !overwrite {
			continue
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		v.entries[e.Name] = e
		written = append(written, e.Name)
	}
	sort.Strings(written)
	return written, nil
}

// Get returns the entry called name.
func (v *Vault) Get(name string) (Entry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e, nil
}

// Remove deletes the entry called name.
func (v *Vault) Remove(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(v.entries, name)
	return nil
}

// List returns every entry sorted by name.
func (v *Vault) List() []Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var entries []Entry = make([]Entry, 0, len(v.entries))
	for _, e := range v.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Len returns the number of entries.
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Save writes the vault atomically. The file is written to a temporary
// file in the same directory and renamed over the original so a failed
// write never leaves a partial vault behind.
func (v *Vault) Save() (err error) {
	var data []byte
	if data, err = v.Marshal(); err != nil {
		return err
	}

	var dir string = filepath.Dir(v.path)
	if err = os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	var tmp *os.File
	if tmp, err = os.CreateTemp(dir, "."+filepath.Base(v.path)+".*"); err != nil {
		return fmt.Errorf("unable to create temporary vault: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), v.path); err != nil {
		return fmt.Errorf("unable to replace vault: %w", err)
	}

	log.Debug().Str("vault", v.path).Int("entries", v.Len()).Msg("saved vault")
	return nil
}

// Marshal returns the YAML form of the vault.
func (v *Vault) Marshal() ([]byte, error) {
	return yaml.Marshal(vaultFile{
		Version: FileVersion,
		Entries: v.List(),
	})
}

// Unmarshal parses entries from the YAML form written by Marshal.
func Unmarshal(data []byte) ([]Entry, error) {
	var f vaultFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Entries, nil
}

func validate(name string, blob types.Blob) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	if !blob.Valid() {
		return fmt.Errorf("%w: %d bytes", ErrMalformed, len(blob))
	}
	return nil
}
