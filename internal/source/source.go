// Package source enumerates the Python files of a scan root and loads
// their text for the detectors.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/spf13/afero"
)

// Extension is the suffix of files that join the scan set.
const Extension = ".py"

// SkipDirs are directory names never descended into.
var SkipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
	"node_modules": true,
}

// ReadError means a file could not be read (vanished, permissions).
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// DecodeError means a file is not valid UTF-8.
type DecodeError struct {
	Path string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: not valid UTF-8", e.Path)
}

// IsFileLocal reports whether err only concerns a single file, in which
// case a detector skips that file and carries on.
func IsFileLocal(err error) bool {
	var readErr *ReadError
	var decodeErr *DecodeError
	var parseErr *pyparse.ParseError
	return errors.As(err, &readErr) || errors.As(err, &decodeErr) || errors.As(err, &parseErr)
}

// File is the decoded text of one source file.
type File struct {
	Path  string
	Text  string
	Lines []string
}

// Set is the file set of one scan run. It is built once by Discover and
// shared read-only by every detector of that run.
type Set struct {
	fs         afero.Fs
	root       string
	paths      []string
	totalLines int

	modules map[string]moduleResult
}

type moduleResult struct {
	module *pyparse.Module
	err    error
}

// Discover walks root and returns the set of Python files under it.
// Walk order is lexical, so repeated runs see files in the same order.
func Discover(fs afero.Fs, root string) (*Set, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s: not a directory", root)
	}

	set := &Set{
		fs:      fs,
		root:    root,
		modules: make(map[string]moduleResult),
	}

	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable entries below the root are not part of the scan.
			return nil
		}

		if info.IsDir() {
			if path != root && SkipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(info.Name(), Extension) {
			return nil
		}

		set.paths = append(set.paths, path)
		if data, err := afero.ReadFile(fs, path); err == nil && utf8.Valid(data) {
			set.totalLines += CountLines(normalize(data))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return set, nil
}

// Root returns the directory the set was discovered from.
func (s *Set) Root() string {
	return s.root
}

// Paths returns the scan set in walk order.
func (s *Set) Paths() []string {
	return s.paths
}

// Len returns the number of files in the set.
func (s *Set) Len() int {
	return len(s.paths)
}

// TotalLines returns the line count over every decodable file.
func (s *Set) TotalLines() int {
	return s.totalLines
}

// Raw reads the undecoded bytes of a file.
func (s *Set) Raw(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}

// Load reads and decodes a file. Line endings are normalized to \n.
func (s *Set) Load(path string) (*File, error) {
	data, err := s.Raw(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, &DecodeError{Path: path}
	}

	text := string(normalize(data))
	return &File{
		Path:  path,
		Text:  text,
		Lines: SplitLines(text),
	}, nil
}

// Module returns the parsed form of a file. Results, including parse
// failures, are memoized for the lifetime of the set.
func (s *Set) Module(ctx context.Context, path string) (*pyparse.Module, error) {
	if res, ok := s.modules[path]; ok {
		return res.module, res.err
	}

	file, err := s.Load(path)
	if err != nil {
		return nil, err
	}

	module, err := pyparse.Parse(ctx, []byte(file.Text))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.modules[path] = moduleResult{module: module, err: err}
	}
	return module, err
}

// SplitLines splits text into lines without their terminators. A trailing
// newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// CountLines counts lines the way a line iterator would: an unterminated
// last line still counts.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// normalize converts \r\n and lone \r line endings to \n.
func normalize(data []byte) []byte {
	if !bytes.ContainsRune(data, '\r') {
		return data
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
}
