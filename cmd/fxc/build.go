// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gogpu/fxc"
	"github.com/gogpu/fxc/binfmt"
	"github.com/gogpu/fxc/buildcache"
	"github.com/gogpu/fxc/preprocess"
)

// job is one effect to build. Paths are as given by the user.
type job struct {
	source  string
	output  string
	defines map[string]string
}

type build struct {
	cmd      *command
	target   binfmt.Target
	debug    bool
	includes []string

	// es and skipValidation configure the naga backend.
	es             bool
	skipValidation bool

	cache    string
	parallel int
	jobs     []job

	out *printer
	log *log.Logger
}

func (c *command) newBuild(target binfmt.Target, debug bool, includes []string, cache string, jobs int) *build {
	if jobs < 1 {
		jobs = 1
	}
	b := &build{
		cmd:      c,
		target:   target,
		debug:    debug,
		includes: includes,
		cache:    cache,
		parallel: jobs,
		out:      newPrinter(c.stderr),
		log:      log.New(io.Discard, "", 0),
	}
	if c.verbose {
		b.log = log.New(b.out, "fxc: ", 0)
	}
	return b
}

// workspace roots an fs.FS at the deepest directory holding every path the
// build touches, so that sources, includes and outputs share one namespace.
type workspace struct {
	root string
	fsys fs.FS
}

func newWorkspace(paths []string) (*workspace, error) {
	root := ""
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if root == "" {
			root = filepath.Dir(abs)
		}
		for !within(root, abs) {
			parent := filepath.Dir(root)
			if parent == root {
				return nil, fmt.Errorf("%s: no common root with %s", p, root)
			}
			root = parent
		}
	}
	if root == "" {
		root = "."
	}
	return &workspace{root: root, fsys: os.DirFS(root)}, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// rel returns p as a path inside the workspace FS.
func (w *workspace) rel(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (b *build) workspace() (*workspace, error) {
	var paths []string
	for _, j := range b.jobs {
		paths = append(paths, j.source)
		if j.output != "" {
			paths = append(paths, j.output)
		}
	}
	for _, inc := range b.includes {
		paths = append(paths, filepath.Join(inc, "x"))
	}
	return newWorkspace(paths)
}

func (b *build) options(ws *workspace, j job) fxc.Options {
	includes := make([]string, len(b.includes))
	for i, inc := range b.includes {
		includes[i] = ws.rel(inc)
	}
	opts := fxc.DefaultOptions()
	opts.Toolchain = b.cmd.toolchain
	opts.Target = b.target
	opts.Debug = b.debug
	opts.ES = b.es
	opts.SkipValidation = b.skipValidation
	opts.Defines = j.defines
	opts.IncludePaths = includes
	opts.FS = ws.fsys
	opts.Logger = b.log
	return opts
}

// preprocessAll prints the preprocessed text of every job, or writes it to
// the job's output when one was given with -o.
func (b *build) preprocessAll() error {
	ws, err := b.workspace()
	if err != nil {
		b.out.report(err)
		return err
	}
	var errs []error
	for _, j := range b.jobs {
		name := ws.rel(j.source)
		text, err := fs.ReadFile(ws.fsys, name)
		if err == nil {
			opts := b.options(ws, j)
			opts.LineMarkers = true
			var out *preprocess.Output
			out, err = fxc.Preprocess(preprocess.Source{Name: name, Text: string(text)}, opts)
			if err == nil {
				if b.cmd.output != "" {
					err = os.WriteFile(b.cmd.output, []byte(out.Text), 0o644)
				} else {
					_, err = io.WriteString(b.cmd.stdout, out.Text)
				}
			}
		}
		if err != nil {
			b.out.report(err)
			errs = append(errs, err)
		}
	}
	return fxc.Multi(errs...)
}

// compileAll compiles the jobs, at most b.parallel at a time.
func (b *build) compileAll() error {
	ws, err := b.workspace()
	if err != nil {
		b.out.report(err)
		return err
	}
	var cache *buildcache.Cache
	if b.cache != "" {
		if cache, err = buildcache.Open(b.cache); err != nil {
			b.out.report(err)
			return err
		}
		defer cache.Close()
	}

	var (
		wg   sync.WaitGroup
		sem  = make(chan struct{}, b.parallel)
		errs = make([]error, len(b.jobs))
	)
	for i, j := range b.jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = b.compile(ws, cache, j)
		}()
	}
	wg.Wait()
	return fxc.Multi(errs...)
}

func (b *build) compile(ws *workspace, cache *buildcache.Cache, j job) error {
	name := ws.rel(j.source)
	output := ws.rel(j.output)
	opts := b.options(ws, j)

	fingerprint := buildcache.Fingerprint(buildcache.Settings{
		Target:         b.target,
		Debug:          b.debug,
		ES:             b.es,
		SkipValidation: b.skipValidation,
		Defines:        j.defines,
		Include:        opts.IncludePaths,
	})
	if cache != nil {
		ok, err := cache.UpToDate(output, fingerprint, ws.fsys)
		if err != nil {
			b.log.Printf("%s: cache: %v", j.source, err)
		}
		if ok {
			b.log.Printf("%s: up to date", j.output)
			return nil
		}
	}

	res, err := fxc.CompileFile(name, opts)
	if err != nil {
		b.out.diagnostics(fxc.Warnings(err), err)
		if cache != nil {
			if ferr := cache.Forget(output); ferr != nil {
				b.log.Printf("%s: cache: %v", j.source, ferr)
			}
		}
		return err
	}
	b.out.diagnostics(res.Warnings, nil)

	if dir := filepath.Dir(j.output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.out.report(err)
			return err
		}
	}
	if err := os.WriteFile(j.output, res.Bytes, 0o644); err != nil {
		b.out.report(err)
		return err
	}
	b.log.Printf("%s -> %s (%d bytes)", j.source, j.output, len(res.Bytes))

	if cache != nil {
		files := append([]string{name}, res.Dependencies...)
		if err := cache.Record(output, fingerprint, files, ws.fsys); err != nil {
			b.log.Printf("%s: cache: %v", j.source, err)
		}
	}
	return nil
}
