package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/badge"
	"github.com/dmitrijs2005/rollcall/internal/checkin"
	sc "github.com/dmitrijs2005/rollcall/internal/server/config"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BadgeURLValidity is how long a published badge link stays usable.
const BadgeURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// BadgeLink points at a published badge.
type BadgeLink struct {
	Key       string
	FileName  string
	URL       string
	ExpiresAt time.Time
}

// BadgeService publishes attendee badges to S3-compatible storage.
type BadgeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	now         func() time.Time
}

func NewBadgeService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *BadgeService {
	return &BadgeService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		now:         time.Now,
	}
}

// BadgeKey is the object key of a badge.
func BadgeKey(code string) string {
	return fmt.Sprintf("badges/%s.png", code)
}

func (s *BadgeService) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Publish renders the badge of the attendee holding code, uploads it and
// returns a presigned GET link.
func (s *BadgeService) Publish(ctx context.Context, code string) (*BadgeLink, error) {
	a, err := s.repomanager.Attendees(s.db).GetByQRCode(ctx, checkin.Normalize(code))
	if err != nil {
		return nil, err
	}

	png, err := badge.Render(a.QRCode)
	if err != nil {
		return nil, fmt.Errorf("error rendering badge: %w", err)
	}

	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := BadgeKey(a.QRCode)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading badge: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(BadgeURLValidity))
	if err != nil {
		return nil, fmt.Errorf("error presigning badge: %w", err)
	}

	return &BadgeLink{
		Key:       key,
		FileName:  badge.FileName(a),
		URL:       req.URL,
		ExpiresAt: s.now().Add(BadgeURLValidity),
	}, nil
}
