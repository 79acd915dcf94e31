package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid_key")

type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	_ = ctx

	key, err := safeKey(in.Key)
	if err != nil {
		return PutResult{}, err
	}
	if err := os.MkdirAll(l.BaseDir, 0o755); err != nil {
		return PutResult{}, err
	}

	dstPath := filepath.Join(l.BaseDir, key)
	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return PutResult{}, err
	}

	url := dstPath
	if l.URLPrefix != "" {
		url = strings.TrimRight(l.URLPrefix, "/") + "/" + key
	}
	return PutResult{Key: key, URL: url}, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	key, err := safeKey(key)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(l.BaseDir, key))
}

func safeKey(key string) (string, error) {
	key = filepath.Base(strings.TrimSpace(key))
	if key == "" || key == "." || key == string(filepath.Separator) {
		return "", ErrInvalidKey
	}
	return key, nil
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
