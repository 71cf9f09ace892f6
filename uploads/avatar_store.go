package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/letsquiz/quiz_api/utils"
)

// AvatarStore persists an uploaded profile picture and returns the URL the
// client should use to fetch it. Remove takes a URL returned by Save.
type AvatarStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, url string) error
}

const MaxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func avatarExtension(file *multipart.FileHeader) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	ext, ok := avatarExtensions[contentType]
	if !ok {
		e := utils.Validation(utils.CodeInvalidAvatar, "Avatar must be a JPEG, PNG, GIF or WebP image")
		e.Details = contentType
		return "", e
	}
	if file.Size > MaxAvatarSize {
		return "", utils.Validation(utils.CodeInvalidAvatar, "Avatar must be at most 5MB")
	}
	return ext, nil
}

func avatarName(ext string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}

// LocalStore writes avatars below the directory served as static content.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(publicDir, avatarDir string) (*LocalStore, error) {
	dir := filepath.Join(publicDir, filepath.FromSlash(avatarDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: "/" + strings.Trim(avatarDir, "/")}, nil
}

func (s *LocalStore) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	ext, err := avatarExtension(file)
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := avatarName(ext)
	if err := writeFile(filepath.Join(s.dir, name), src); err != nil {
		return "", err
	}
	return path.Join(s.urlPrefix, name), nil
}

func (s *LocalStore) Remove(_ context.Context, url string) error {
	name := path.Base(url)
	if path.Dir(url) != s.urlPrefix || name == "." || name == "/" {
		return fmt.Errorf("avatar %q is not managed by this store", url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove avatar file: %w", err)
	}
	return nil
}

// writeFile leaves nothing behind when the copy fails part way.
func writeFile(name string, src io.Reader) error {
	dst, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create avatar file: %w", err)
	}
	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write avatar file: %w", err)
	}
	return nil
}
