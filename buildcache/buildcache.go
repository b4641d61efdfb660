// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package buildcache records what each compiled effect was built from so
// that unchanged effects can be skipped.
//
// The cache is a bbolt database with one bucket per output path. A bucket
// holds the fingerprint of the options the output was built with and a
// nested "deps" bucket mapping every input file to its SHA-256.
package buildcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/gogpu/fxc/binfmt"
)

var (
	keyFingerprint = []byte("fingerprint")
	keyDeps        = []byte("deps")
)

// Cache is an open build cache. It is safe for concurrent use.
type Cache struct {
	db *bolt.DB
}

// Open opens the cache at path, creating it and its directory if needed.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open build cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// UpToDate reports whether output exists in fsys and was recorded with
// fingerprint from files whose contents are unchanged. Files that can no
// longer be read make the output stale, not an error.
func (c *Cache) UpToDate(output, fingerprint string, fsys fs.FS) (bool, error) {
	if _, err := fs.Stat(fsys, output); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	recorded := make(map[string]string)
	var match bool
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(output))
		if b == nil {
			return nil
		}
		if string(b.Get(keyFingerprint)) != fingerprint {
			return nil
		}
		deps := b.Bucket(keyDeps)
		if deps == nil {
			return nil
		}
		match = true
		return deps.ForEach(func(k, v []byte) error {
			recorded[string(k)] = string(v)
			return nil
		})
	})
	if err != nil || !match || len(recorded) == 0 {
		return false, err
	}

	for name, sum := range recorded {
		got, err := hashFile(fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, err
		}
		if got != sum {
			return false, nil
		}
	}
	return true, nil
}

// Record stores the fingerprint and the current hashes of files for output,
// replacing any previous record.
func (c *Cache) Record(output, fingerprint string, files []string, fsys fs.FS) error {
	if len(files) == 0 {
		return fmt.Errorf("record %s: no input files", output)
	}
	sums := make(map[string]string, len(files))
	for _, name := range files {
		sum, err := hashFile(fsys, name)
		if err != nil {
			return fmt.Errorf("record %s: %w", output, err)
		}
		sums[name] = sum
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		if err := deleteBucket(tx, output); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(output))
		if err != nil {
			return err
		}
		if err := b.Put(keyFingerprint, []byte(fingerprint)); err != nil {
			return err
		}
		deps, err := b.CreateBucket(keyDeps)
		if err != nil {
			return err
		}
		for name, sum := range sums {
			if err := deps.Put([]byte(name), []byte(sum)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Forget drops the record for output. Forgetting an unknown output is not
// an error.
func (c *Cache) Forget(output string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return deleteBucket(tx, output)
	})
}

func deleteBucket(tx *bolt.Tx, name string) error {
	err := tx.DeleteBucket([]byte(name))
	if errors.Is(err, bolt.ErrBucketNotFound) {
		return nil
	}
	return err
}

func hashFile(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Settings are the compile options that affect a compiled effect.
type Settings struct {
	Target         binfmt.Target
	Debug          bool
	ES             bool
	SkipValidation bool
	Defines        map[string]string
	Include        []string
}

// Fingerprint hashes s. Defines are hashed in key order; include paths keep
// their search order.
func Fingerprint(s Settings) string {
	h := sha256.New()
	fmt.Fprintf(h, "v%d\x00%s\x00%t\x00%t\x00%t\x00", binfmt.Version, s.Target, s.Debug, s.ES, s.SkipValidation)
	for _, k := range slices.Sorted(maps.Keys(s.Defines)) {
		fmt.Fprintf(h, "D%s=%s\x00", k, s.Defines[k])
	}
	fmt.Fprintf(h, "I%s\x00", strings.Join(s.Include, "\x01"))
	return hex.EncodeToString(h.Sum(nil))
}
