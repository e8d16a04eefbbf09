package keystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Layout selects how key files are arranged in the key directory.
type Layout string

const (
	// LayoutShared keeps a single public.pem/private.pem pair in the key
	// directory. Every actor signs with it.
	LayoutShared Layout = "shared"

	// LayoutPerActor keeps <dir>/<name>/public.pem and
	// <dir>/<name>/private.pem for every actor.
	LayoutPerActor Layout = "per-actor"
)

const (
	publicFile  = "public.pem"
	privateFile = "private.pem"
)

// File is a Store reading PEM files from a directory.
type File struct {
	dir    string
	layout Layout
}

// NewFile returns a Store for dir. An empty layout means LayoutShared.
func NewFile(dir string, layout Layout) (*File, error) {
	switch layout {
	case "":
		layout = LayoutShared
	case LayoutShared, LayoutPerActor:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLayout, layout)
	}

	return &File{dir: dir, layout: layout}, nil
}

// LoadPublicKeyPEM implements Store.
func (f *File) LoadPublicKeyPEM(_ context.Context, name string) (string, error) {
	return f.read(name, publicFile)
}

// LoadPrivateKeyPEM implements Store.
func (f *File) LoadPrivateKeyPEM(_ context.Context, name string) (string, error) {
	return f.read(name, privateFile)
}

// Put writes a key pair for name. With LayoutShared the pair replaces the
// shared keys. The private key is written with mode 0600.
func (f *File) Put(_ context.Context, name, publicPEM, privatePEM string) error {
	dir, err := f.actorDir(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, publicFile), []byte(publicPEM), 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, privateFile), []byte(privatePEM), 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	return nil
}

func (f *File) read(name, file string) (string, error) {
	dir, err := f.actorDir(name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s %s", ErrKeyNotFound, name, file)
		}

		return "", fmt.Errorf("read %s: %w", file, err)
	}

	return string(data), nil
}

func (f *File) actorDir(name string) (string, error) {
	if f.layout == LayoutShared {
		return f.dir, nil
	}

	if name == "" || strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return filepath.Join(f.dir, name), nil
}
