package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary wraps the object storage used for media and avatars.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func New(cloudinaryURL string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &Cloudinary{cld: cld}, nil
}

// UploadResult carries what the application persists about a stored
// object: the serving URL and the public id needed to delete it later.
type UploadResult struct {
	URL      string
	PublicID string
}

func (c *Cloudinary) UploadMedia(ctx context.Context, file io.Reader, ownerHex string) (UploadResult, error) {
	return c.upload(ctx, file, uploader.UploadParams{
		Folder:         "pixels/media",
		PublicID:       fmt.Sprintf("%s_%s", ownerHex, time.Now().Format("20060102150405")),
		Transformation: "c_limit,w_1600,h_1600,q_auto",
	})
}

func (c *Cloudinary) UploadAvatar(ctx context.Context, file io.Reader, ownerHex string) (UploadResult, error) {
	return c.upload(ctx, file, uploader.UploadParams{
		Folder:         "pixels/avatars",
		PublicID:       ownerHex,
		Transformation: "c_limit,w_400,h_400,q_auto",
	})
}

func (c *Cloudinary) upload(ctx context.Context, file io.Reader, params uploader.UploadParams) (UploadResult, error) {
	result, err := c.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{URL: result.SecureURL, PublicID: result.PublicID}, nil
}

// Destroy removes a stored object. Media deletion calls this so orphaned
// objects do not pile up in the bucket.
func (c *Cloudinary) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}
