// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/gogpu/fxc"
	"github.com/gogpu/fxc/effect"
	"github.com/gogpu/fxc/preprocess"
)

const (
	colorError   = "\033[1;31m"
	colorWarning = "\033[1;33m"
	colorReset   = "\033[0m"
)

// printer writes diagnostics of concurrent builds without interleaving
// them.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		p.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return p
}

// Write lets the printer back a log.Logger.
func (p *printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w.Write(b)
}

func (p *printer) report(err error) {
	p.diagnostics(nil, err)
}

// diagnostics prints warnings followed by err, if any, as one block.
func (p *printer) diagnostics(warnings []string, err error) {
	if len(warnings) == 0 && err == nil {
		return
	}
	var sb strings.Builder
	for _, w := range warnings {
		sb.WriteString(p.label("warning", colorWarning))
		sb.WriteString(w)
		sb.WriteByte('\n')
	}
	if err != nil {
		for _, line := range strings.Split(strings.TrimRight(describe(err), "\n"), "\n") {
			if rest, ok := strings.CutPrefix(line, "error: "); ok {
				sb.WriteString(p.label("error", colorError))
				line = rest
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	p.Write([]byte(sb.String()))
}

func (p *printer) label(name, color string) string {
	if p.color {
		return color + name + ":" + colorReset + " "
	}
	return name + ": "
}

// describe renders err with source context where the error carries it.
// Every rendered diagnostic starts with "error: " and ends in a newline.
func describe(err error) string {
	var (
		list effect.SourceErrors
		pe   *preprocess.SourceError
		me   fxc.MultiError
	)
	switch {
	case errors.As(err, &me):
		var sb strings.Builder
		for _, e := range me {
			sb.WriteString(describe(e))
		}
		return sb.String()
	case errors.As(err, &list):
		var sb strings.Builder
		for _, e := range list {
			sb.WriteString(block(e.FormatWithContext()))
		}
		return sb.String()
	case errors.As(err, &pe):
		return block(pe.FormatWithContext())
	}
	return block(err.Error())
}

func block(s string) string {
	if !strings.HasPrefix(s, "error: ") {
		s = "error: " + s
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
