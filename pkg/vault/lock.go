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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// ErrLocked is returned when another process holds the vault lock for longer
// than LockTimeout.
var ErrLocked = errors.New("vault is locked by another process")

var (
	LockTimeout    = 10 * time.Second
	StaleLockAge   = 5 * time.Minute
	lockRetryDelay = 50 * time.Millisecond
)

// Lock takes an exclusive lock on the vault at path by creating path.lock.
// The returned function releases it.
func Lock(ctx context.Context, path string) (func(), error) {
	var lockfile string = path + ".lock"

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = lockRetryDelay
	exp.RandomizationFactor = 0.1
	exp.Multiplier = 2.0
	exp.MaxInterval = time.Second
	exp.MaxElapsedTime = LockTimeout
	exp.Reset()

	f := func() error {
		fh, err := os.OpenFile(lockfile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			fmt.Fprintf(fh, "%d\n", os.Getpid())
			return fh.Close()
		}
		if !errors.Is(err, os.ErrExist) {
			return backoff.Permanent(err)
		}

		if info, serr := os.Stat(lockfile); serr == nil && time.Since(info.ModTime()) > StaleLockAge {
			log.Warn().Str("lock", lockfile).Msg("removing stale vault lock")
			os.Remove(lockfile)
		}
		return ErrLocked
	}

	notify := func(err error, d time.Duration) {
		log.Debug().Err(err).Dur("retry", d).Str("lock", lockfile).Msg("waiting for vault lock")
	}

	if err := backoff.RetryNotify(f, backoff.WithContext(exp, ctx), notify); err != nil {
		return nil, err
	}
	return func() {
		if err := os.Remove(lockfile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("lock", lockfile).Msg("unable to release vault lock")
		}
	}, nil
}

// Update locks the vault, opens it, hands it to fn and saves it if fn
// succeeds. Nothing is written when fn returns an error.
func Update(ctx context.Context, path string, fn func(v *Vault) error) error {
	unlock, err := Lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	v, err := Open(path)
	if err != nil {
		return err
	}
	if err = fn(v); err != nil {
		return err
	}
	return v.Save()
}
