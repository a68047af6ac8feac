package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrInvalidName = errors.New("invalid file name")

// Upload is a file received from a client, not yet written to storage.
type Upload struct {
	Filename string
	Data     []byte
}

// Storage keeps uploaded files addressed by slash separated names.
type Storage interface {
	// Save writes data under name, or under a free variant of name if it is taken,
	// and returns the name actually used.
	Save(name string, data []byte) (string, error)
	// Delete removes the file, a missing file is not an error.
	Delete(name string) error
	// Walk calls fn with the name of every stored file.
	Walk(fn func(name string) error) error
}

func CategoryIconPath(id int64, filename string) string {
	return fmt.Sprintf("category/%d/category_icon/%s", id, baseName(filename))
}

func ChannelIconPath(id int64, filename string) string {
	return fmt.Sprintf("server/%d/server_icons/%s", id, baseName(filename))
}

func ChannelBannerPath(id int64, filename string) string {
	return fmt.Sprintf("server/%d/server_banner/%s", id, baseName(filename))
}

func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return name
}

// FromForm reads the multipart file in field. A missing field returns http.ErrMissingFile.
func FromForm(r *http.Request, field string) (*Upload, error) {
	formFile, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer formFile.Close()

	data, err := io.ReadAll(formFile)
	if err != nil {
		return nil, err
	}

	return &Upload{Filename: header.Filename, Data: data}, nil
}

type Local struct {
	root  string
	mutex sync.Mutex
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Root() string {
	return l.root
}

func (l *Local) fullPath(name string) (string, error) {
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(l.root, filepath.FromSlash(name)), nil
}

func (l *Local) Save(name string, data []byte) (string, error) {
	fullPath, err := l.fullPath(name)
	if err != nil {
		return "", err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	// make folders if they don't exist yet
	err = os.MkdirAll(filepath.Dir(fullPath), os.ModePerm)
	if err != nil {
		return "", err
	}

	for {
		_, err = os.Stat(fullPath)
		if errors.Is(err, fs.ErrNotExist) {
			break
		} else if err != nil {
			return "", err
		}

		name = alternativeName(name)
		fullPath, err = l.fullPath(name)
		if err != nil {
			return "", err
		}
	}

	err = os.WriteFile(fullPath, data, 0644)
	if err != nil {
		return "", err
	}

	return name, nil
}

// alternativeName inserts an underscore and 7 random characters before the extension.
func alternativeName(name string) string {
	ext := path.Ext(name)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), suffix, ext)
}

func (l *Local) Delete(name string) error {
	if name == "" {
		return nil
	}

	fullPath, err := l.fullPath(name)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) Walk(fn func(name string) error) error {
	err := filepath.WalkDir(l.root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(l.root, fullPath)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
