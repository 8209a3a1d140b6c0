package avatar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local writes avatars into a directory that is served under baseURL.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	name, err := objectName(contentType, data)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, name)
	if _, err := os.Stat(path); err != nil {
		// Write then rename so readers never see a partial file.
		tmp, err := os.CreateTemp(l.dir, ".upload-*")
		if err != nil {
			return "", fmt.Errorf("create avatar: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write avatar: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return "", fmt.Errorf("write avatar: %w", err)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			return "", fmt.Errorf("store avatar: %w", err)
		}
	}

	return l.baseURL + "/" + name, nil
}
