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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notapipeline/passgen/pkg/crypto"
	"github.com/notapipeline/passgen/pkg/types"
)

var cfg = types.EncryptionConfig{PassgenKey: "my-secret-key"}

func setupSuite(t *testing.T) (string, func(t *testing.T)) {
	var fixed time.Time = time.Date(2023, 11, 5, 10, 0, 0, 0, time.UTC)
	now = func() time.Time {
		return fixed
	}
	return filepath.Join(t.TempDir(), "vault.yaml"), func(t *testing.T) {
		now = time.Now
	}
}

func mustEncrypt(t *testing.T, password string) types.Blob {
	t.Helper()
	blob, err := crypto.Encrypt(password, cfg)
	require.NoError(t, err)
	return blob
}

func TestOpenMissingVault(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, path, v.Path())
	assert.Empty(t, v.List())
}

func TestAddGetRemove(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, _ := Open(path)
	blob := mustEncrypt(t, "Tr0ub4dor&3")

	e, err := v.Add("github", blob)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, "github", e.Name)
	assert.Equal(t, e.Created, e.Updated)

	_, err = v.Add("github", blob)
	assert.True(t, errors.Is(err, ErrExists))
	assert.EqualError(t, err, "entry already exists: github")

	got, err := v.Get("github")
	require.NoError(t, err)
	if diff := pretty.Compare(e, got); diff != "" {
		t.Errorf("Unexpected entry (-want +got):\n%s", diff)
	}

	require.NoError(t, v.Remove("github"))
	_, err = v.Get("github")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(v.Remove("github"), ErrNotFound))
}

func TestPutKeepsIdentity(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, _ := Open(path)
	first, err := v.Put("mail", mustEncrypt(t, "one"))
	require.NoError(t, err)

	later := first.Created.Add(time.Hour)
	now = func() time.Time {
		return later
	}

	second, err := v.Put("mail", mustEncrypt(t, "two"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Created, second.Created)
	assert.Equal(t, later, second.Updated)
	assert.False(t, bytes.Equal(first.Blob, second.Blob))

	password, err := crypto.Decrypt(second.Blob, cfg)
	require.NoError(t, err)
	assert.Equal(t, "two", password)
}

func TestPutRacingAdd(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, _ := Open(path)
	blob := mustEncrypt(t, "racing")

	var (
		wg     sync.WaitGroup
		errs   = make(chan error, 200)
		rounds = 100
	)
	for i := 0; i < rounds; i++ {
		var name string = fmt.Sprintf("entry-%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := v.Put(name, blob); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := v.Add(name, blob); err != nil && !errors.Is(err, ErrExists) {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error: %v", err)
	}
	assert.Equal(t, rounds, v.Len())
}

func TestAddRejectsInvalidEntries(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, _ := Open(path)
	_, err := v.Add("  ", mustEncrypt(t, "x"))
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = v.Add("short", make(types.Blob, types.MinBlobSize-1))
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = v.Put("short", nil)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Equal(t, 0, v.Len())
}

func TestSaveAndReopen(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, _ := Open(path)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := v.Add(name, mustEncrypt(t, "password-"+name))
		require.NoError(t, err)
	}
	require.NoError(t, v.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := Open(path)
	require.NoError(t, err)
	if diff := pretty.Compare(v.List(), reopened.List()); diff != "" {
		t.Errorf("Unexpected entries after reopen (-want +got):\n%s", diff)
	}

	var names []string
	for _, e := range reopened.List() {
		names = append(names, e.Name)
		password, err := crypto.Decrypt(e.Blob, cfg)
		require.NoError(t, err)
		assert.Equal(t, "password-"+e.Name, password)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password-alpha")
	assert.Contains(t, string(data), "version: 1")
}

func TestOpenRejectsBadFiles(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	require.NoError(t, os.WriteFile(path, []byte("version: 99\nentries: []\n"), 0600))
	_, err := Open(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("entries:\n- name: x\n  blob: '***'\n"), 0600))
	_, err = Open(path)
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, _ := Open(path)
	existing, _ := v.Add("shared", mustEncrypt(t, "mine"))

	incoming := []Entry{
		{Name: "shared", Blob: mustEncrypt(t, "theirs")},
		{Name: "new", Blob: mustEncrypt(t, "fresh")},
	}

	written, err := v.Import(incoming, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, written)

	kept, _ := v.Get("shared")
	assert.Equal(t, existing.Blob, kept.Blob)
	added, _ := v.Get("new")
	assert.NotEqual(t, uuid.Nil, added.ID)

	written, err = v.Import(incoming, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "shared"}, written)
	replaced, _ := v.Get("shared")
	password, err := crypto.Decrypt(replaced.Blob, cfg)
	require.NoError(t, err)
	assert.Equal(t, "theirs", password)

	_, err = v.Import([]Entry{{Name: "bad", Blob: types.Blob{1}}}, true)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestMarshalUnmarshal(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	v, _ := Open(path)
	_, err := v.Add("one", mustEncrypt(t, "1"))
	require.NoError(t, err)

	data, err := v.Marshal()
	require.NoError(t, err)
	entries, err := Unmarshal(data)
	require.NoError(t, err)
	if diff := pretty.Compare(v.List(), entries); diff != "" {
		t.Errorf("Unexpected entries (-want +got):\n%s", diff)
	}
}

func TestLockContention(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	origTimeout := LockTimeout
	defer func() {
		LockTimeout = origTimeout
	}()
	LockTimeout = 200 * time.Millisecond

	unlock, err := Lock(context.Background(), path)
	require.NoError(t, err)

	_, err = Lock(context.Background(), path)
	assert.True(t, errors.Is(err, ErrLocked), "expected ErrLocked but got %v", err)

	unlock()
	unlock2, err := Lock(context.Background(), path)
	require.NoError(t, err)
	unlock2()

	_, err = os.Stat(path + ".lock")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLockRemovesStaleLock(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	require.NoError(t, os.WriteFile(path+".lock", []byte("1\n"), 0600))
	old := time.Now().Add(-2 * StaleLockAge)
	require.NoError(t, os.Chtimes(path+".lock", old, old))

	unlock, err := Lock(context.Background(), path)
	require.NoError(t, err)
	unlock()
}

func TestLockHonoursContext(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	unlock, err := Lock(context.Background(), path)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Lock(ctx, path)
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	path, teardown := setupSuite(t)
	defer teardown(t)

	err := Update(context.Background(), path, func(v *Vault) error {
		_, err := v.Add("github", mustEncrypt(t, "password"))
		return err
	})
	require.NoError(t, err)

	failure := errors.New("abort")
	err = Update(context.Background(), path, func(v *Vault) error {
		if err := v.Remove("github"); err != nil {
			return err
		}
		return failure
	})
	assert.True(t, errors.Is(err, failure))

	v, err := Open(path)
	require.NoError(t, err)
	_, err = v.Get("github")
	assert.NoError(t, err, "failed update must not be written")
}
