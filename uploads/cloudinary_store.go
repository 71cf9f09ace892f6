package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const cloudinaryFolder = "quiz_avatars"

type CloudinaryStore struct {
	cld     *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
}

func NewCloudinaryStore(cloudinaryURL string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: cloudinaryFolder, timeout: 10 * time.Second}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ext, err := avatarExtension(file)
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		PublicID: strings.TrimSuffix(avatarName(ext), ext),
		Folder:   s.folder,
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if result.Error.Message != "" {
		return "", errors.New("upload avatar: " + result.Error.Message)
	}
	return result.SecureURL, nil
}

// Remove destroys the asset behind a secure URL returned by Save.
func (s *CloudinaryStore) Remove(ctx context.Context, url string) error {
	name := path.Base(url)
	publicID := s.folder + "/" + strings.TrimSuffix(name, path.Ext(name))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy avatar %s: %w", publicID, err)
	}
	if result.Error.Message != "" {
		return errors.New("destroy avatar: " + result.Error.Message)
	}
	return nil
}
