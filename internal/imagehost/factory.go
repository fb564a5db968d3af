package imagehost

import (
	"context"
	"fmt"
	"time"

	"estate-market/internal/core/config"
)

// New builds the uploader selected by c.Provider.
func New(ctx context.Context, c config.ImageHost) (Uploader, error) {
	timeout := time.Duration(c.TimeoutSec) * time.Second
	switch c.Provider {
	case "", backendCloudinary:
		if c.Cloudinary.CloudName == "" || c.Cloudinary.UploadPreset == "" {
			return nil, fmt.Errorf("imagehost: cloudinary needs cloudName and uploadPreset")
		}
		return NewCloudinary(c.Cloudinary, timeout), nil
	case backendS3:
		if c.S3.Bucket == "" {
			return nil, fmt.Errorf("imagehost: s3 needs a bucket")
		}
		return NewS3(ctx, c.S3)
	}
	return nil, fmt.Errorf("imagehost: unknown provider %q", c.Provider)
}
