package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ecoquad/greenbond/internal/common"
	"github.com/ecoquad/greenbond/internal/dbx"
	"github.com/ecoquad/greenbond/internal/logging"
	sc "github.com/ecoquad/greenbond/internal/server/config"
	"github.com/ecoquad/greenbond/internal/server/models"
	"github.com/ecoquad/greenbond/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

var kycDocumentTypes = map[string]bool{
	"pan_card":             true,
	"aadhaar":              true,
	"passport":             true,
	"driving_license":      true,
	"company_registration": true,
	"other":                true,
}

// KYCDocumentView is an uploaded document with a short-lived download URL.
type KYCDocumentView struct {
	Document    *models.KYCDocument
	DownloadURL string
}

// KYCStatus is the verification state of a user and their documents.
type KYCStatus struct {
	Status    models.KYCStatus
	Documents []*models.KYCDocument
}

type KYCService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewKYCService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *KYCService {
	return &KYCService{
		db:          db,
		repomanager: m,
		config:      config,
		logger:      logger.With("module", "kyc_service"),
	}
}

// storageKey places documents under the owning user so bucket policies can
// be scoped per user.
func storageKey(userID string, t time.Time) string {
	return fmt.Sprintf("kyc/%s/%d/%02d/%02d/%v", userID, t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *KYCService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// RequestUpload registers a document and returns a presigned PUT the client
// uploads the bytes to. The user's KYC status goes back to pending in the
// same transaction.
func (s *KYCService) RequestUpload(ctx context.Context, userID, documentType string) (*models.KYCUploadTask, error) {
	documentType = strings.ToLower(strings.TrimSpace(documentType))
	if documentType == "" {
		return nil, common.NewValidationError("documentType is required")
	}
	if !kycDocumentTypes[documentType] {
		return nil, common.NewValidationError("Invalid document type")
	}

	if _, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := storageKey(userID, time.Now().UTC())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.KYCDocuments(tx).Create(ctx, &models.KYCDocument{
			UserID:       userID,
			StorageKey:   key,
			DocumentType: documentType,
		}); err != nil {
			return err
		}
		return s.repomanager.Users(tx).UpdateKYCStatus(ctx, userID, models.KYCPending)
	})
	if err != nil {
		return nil, fmt.Errorf("error recording document: %w", err)
	}

	s.logger.Info(ctx, "kyc document upload requested", "user_id", userID, "document_type", documentType)
	return &models.KYCUploadTask{Key: key, URL: req.URL}, nil
}

// Status returns the user's KYC status and uploaded documents.
func (s *KYCService) Status(ctx context.Context, userID string) (*KYCStatus, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repomanager.KYCDocuments(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &KYCStatus{Status: user.KYCStatus, Documents: docs}, nil
}

// Documents lists the user's documents with presigned GET URLs.
func (s *KYCService) Documents(ctx context.Context, userID string) ([]KYCDocumentView, error) {
	docs, err := s.repomanager.KYCDocuments(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []KYCDocumentView{}, nil
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	views := make([]KYCDocumentView, 0, len(docs))
	for _, d := range docs {
		key := d.StorageKey
		req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		}, s3.WithPresignExpires(presignExpiry))
		if err != nil {
			return nil, fmt.Errorf("error presigning download: %w", err)
		}
		views = append(views, KYCDocumentView{Document: d, DownloadURL: req.URL})
	}
	return views, nil
}
