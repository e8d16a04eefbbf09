package server

import (
	"io/fs"
	"net/http"
)

// noListingFS hides directories without an index.html so the file
// server answers 404 instead of listing them.
type noListingFS struct {
	fs fs.FS
}

func (n noListingFS) Open(name string) (fs.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if !stat.IsDir() {
		return f, nil
	}

	index := name + "/index.html"
	if name == "." {
		index = "index.html"
	}

	if _, err := fs.Stat(n.fs, index); err != nil {
		f.Close()
		return nil, fs.ErrNotExist
	}

	return f, nil
}

func staticHandler(fsys fs.FS) http.Handler {
	return http.FileServerFS(noListingFS{fs: fsys})
}
