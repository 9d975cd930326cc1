package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"peopleguard/internal/platform/crypto"
	"peopleguard/internal/platform/ids"
)

var (
	ErrTooLarge         = errors.New("file exceeds upload limit")
	ErrEmpty            = errors.New("file is empty")
	ErrInvalidExtension = errors.New("file type not allowed")
	ErrNotFound         = errors.New("stored file not found")
	ErrInvalidKey       = errors.New("invalid storage key")
)

var (
	CaseExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".jpg", ".jpeg", ".png", ".gif"}
	FileExtensions = append([]string{".txt"}, CaseExtensions...)
)

// Object describes a stored blob. Key is "<category>/<ulid><ext>".
type Object struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// Store keeps uploaded documents on local disk, sealed with the crypto service.
type Store struct {
	Root     string
	MaxBytes int64
	Crypto   *crypto.Service
}

func New(root string, maxBytes int64, c *crypto.Service) *Store {
	return &Store{Root: root, MaxBytes: maxBytes, Crypto: c}
}

func AllowedExtension(fileName string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return false
	}
	for _, candidate := range allowed {
		if ext == candidate {
			return true
		}
	}
	return false
}

func (s *Store) Save(ctx context.Context, category, fileName string, r io.Reader, allowed []string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if allowed != nil && !AllowedExtension(fileName, allowed) {
		return Object{}, ErrInvalidExtension
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Object{}, err
	}
	if len(data) == 0 {
		return Object{}, ErrEmpty
	}
	if int64(len(data)) > limit {
		return Object{}, ErrTooLarge
	}

	key := category + "/" + ids.New() + strings.ToLower(filepath.Ext(fileName))
	sealed, err := s.Crypto.Encrypt(data)
	if err != nil {
		return Object{}, fmt.Errorf("encrypt upload: %w", err)
	}
	if err := s.write(key, sealed); err != nil {
		return Object{}, err
	}
	return Object{
		Key:         key,
		FileName:    fileName,
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
	}, nil
}

// Put stores generated content, such as rendered letters, under category.
func (s *Store) Put(category, ext string, data []byte) (string, error) {
	key := category + "/" + ids.New() + ext
	sealed, err := s.Crypto.Encrypt(data)
	if err != nil {
		return "", err
	}
	return key, s.write(key, sealed)
}

func (s *Store) Open(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	sealed, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Crypto.Decrypt(sealed)
}

func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) write(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}

func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.Root, clean), nil
}

// FileID is the public identifier of a stored object: the base name of its key.
func FileID(key string) string {
	return path.Base(key)
}

// KeyFor resolves a public file id back to its key under category.
func KeyFor(category, fileID string) (string, error) {
	ext := filepath.Ext(fileID)
	if !ids.Valid(strings.TrimSuffix(fileID, ext)) {
		return "", ErrInvalidKey
	}
	if ext != "" && !AllowedExtension(fileID, FileExtensions) {
		return "", ErrInvalidKey
	}
	return category + "/" + fileID, nil
}

// ContentTypeFor guesses a download content type from the stored name.
func ContentTypeFor(fileName string, data []byte) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}
