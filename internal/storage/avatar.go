// Package storage implements avatar image storage on S3. Uploaded images are
// normalized server side (square crop, fixed size, JPEG) so clients always
// fetch predictable objects.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoding
	"image/jpeg"
	_ "image/png" // register PNG decoding
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// avatarSize is the edge length of stored avatars in pixels.
const avatarSize = 400

// maxSourcePixels bounds the decoded size of an upload. The header of a
// compressed image can declare arbitrary dimensions, so the limit is checked
// before decoding allocates the pixel buffer.
const maxSourcePixels = 4096 * 4096

// AvatarStore uploads and deletes avatar objects in a single S3 bucket under
// the avatars/ prefix.
type AvatarStore struct {
	client *s3.Client
	bucket string
	region string
}

// NewAvatarStore builds an AvatarStore using the default AWS credential
// chain. bucket and region come from configuration; both must be non-empty.
func NewAvatarStore(ctx context.Context, bucket, region string) (*AvatarStore, error) {
	if bucket == "" || region == "" {
		return nil, fmt.Errorf("avatar storage requires AWS_BUCKET_NAME and AWS_REGION")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &AvatarStore{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

// Upload normalizes the raw image and stores it under a fresh random key,
// returning the public object URL. The key embeds the user id for
// traceability but uniqueness comes from the uuid, so an upload never
// overwrites a previous avatar; callers delete the old object separately.
func (s *AvatarStore) Upload(ctx context.Context, userID uint64, raw []byte) (string, error) {
	normalized, err := normalize(raw)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("avatars/user-%d-%s.jpg", userID, uuid.NewString())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(normalized),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Delete removes the object behind a previously returned URL. Only keys under
// avatars/ are ever deleted; anything else is silently ignored so a corrupted
// URL in the database cannot be used to delete arbitrary objects.
func (s *AvatarStore) Delete(ctx context.Context, objectURL string) error {
	key, ok := keyFromURL(objectURL)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func keyFromURL(objectURL string) (string, bool) {
	_, after, found := strings.Cut(objectURL, ".amazonaws.com/")
	if !found || !strings.HasPrefix(after, "avatars/") {
		return "", false
	}
	return after, true
}

// normalize decodes the image, center-crops it to a square, scales it to
// avatarSize and re-encodes as JPEG.
func normalize(raw []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxSourcePixels/cfg.Height {
		return nil, fmt.Errorf("image dimensions %dx%d out of bounds", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
