// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"io"
	"io/fs"
	"sync"
)

// FileReader is an io.Reader that opens its file on first read.
type FileReader struct {
	path     string
	fs       fs.FS
	optional bool

	openOnce sync.Once
	openErr  error
	file     io.ReadCloser
}

// FileOption
type FileOption func(*FileReader)

// Optional makes a missing file read as empty instead of failing.
func Optional() FileOption {
	return func(r *FileReader) {
		r.optional = true
	}
}

// NewFileReader configures a FileReader.
func NewFileReader(fsys fs.FS, path string, opts ...FileOption) *FileReader {
	r := &FileReader{
		path: path,
		fs:   fsys,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path is the name of the file within its fs.FS.
func (r *FileReader) Path() string {
	return r.path
}

// Read implements the [io.Reader] interface.
func (r *FileReader) Read(b []byte) (int, error) {
	r.openOnce.Do(func() {
		r.file, r.openErr = r.fs.Open(r.path)
		if r.optional && errors.Is(r.openErr, fs.ErrNotExist) {
			r.openErr = nil
			r.file = nil
		}
	})
	if r.openErr != nil {
		return 0, r.openErr
	}
	if r.file == nil {
		return 0, io.EOF
	}
	return r.file.Read(b)
}

// Close implements the [io.Closer] interface.
func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}
