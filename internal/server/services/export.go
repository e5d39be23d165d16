package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	sc "github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

// Seams over the AWS SDK, replaced in tests.
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

// Supported export formats.
const (
	FormatMarkdown = "md"
	FormatText     = "txt"
)

const (
	exportURLValidity = 15 * time.Minute
	untitledFilename  = "untitled_note"
)

// ErrExportDisabled is returned when no bucket is configured.
var ErrExportDisabled = errors.New("note export is not configured")

// RenderedNote is a note turned into a downloadable document.
type RenderedNote struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportResult points at an uploaded rendering through a presigned URL.
type ExportResult struct {
	ID        string
	Key       string
	Format    string
	URL       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExportService renders notes as Markdown or plain text and publishes them
// to S3-compatible storage.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notes       *NoteService
	config      *sc.Config
	now         func() time.Time
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, notes *NoteService, cfg *sc.Config) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: m,
		notes:       notes,
		config:      cfg,
		now:         time.Now,
	}
}

// Enabled reports whether uploads can be made.
func (s *ExportService) Enabled() bool {
	return s.config.ExportEnabled()
}

var (
	forbiddenFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun          = regexp.MustCompile(`\s+`)
)

// ExportFilename derives a file name from a note title: characters that are
// invalid in file names are dropped and whitespace runs become underscores.
func ExportFilename(title, format string) string {
	name := forbiddenFilenameChars.ReplaceAllString(title, "")
	name = strings.TrimSpace(name)
	name = whitespaceRun.ReplaceAllString(name, "_")
	if name == "" {
		name = untitledFilename
	}
	return name + "." + format
}

// RenderNote formats note as "md" (a level one heading followed by the
// content) or "txt" (the title underlined with '=').
func RenderNote(note *models.Note, format string) (*RenderedNote, error) {
	var body bytes.Buffer

	switch format {
	case FormatMarkdown:
		fmt.Fprintf(&body, "# %s\n\n%s", note.Title, note.Content)
		return &RenderedNote{Filename: ExportFilename(note.Title, format), ContentType: "text/markdown; charset=utf-8", Body: body.Bytes()}, nil
	case FormatText:
		underline := strings.Repeat("=", utf8.RuneCountInString(note.Title))
		fmt.Fprintf(&body, "%s\n%s\n\n%s", note.Title, underline, note.Content)
		return &RenderedNote{Filename: ExportFilename(note.Title, format), ContentType: "text/plain; charset=utf-8", Body: body.Bytes()}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q, use %q or %q", common.ErrValidation, format, FormatMarkdown, FormatText)
	}
}

// Download renders one of the owner's notes.
func (s *ExportService) Download(ctx context.Context, ownerID, noteID, format string) (*RenderedNote, error) {
	note, err := s.notes.Get(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}
	return RenderNote(note, format)
}

// Export renders the note, uploads it and returns a presigned download URL.
func (s *ExportService) Export(ctx context.Context, ownerID, noteID, format string) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, ErrExportDisabled
	}

	rendered, err := s.Download(ctx, ownerID, noteID, format)
	if err != nil {
		return nil, err
	}

	client, presigner, err := s.getClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating s3 client: %w", err)
	}

	now := s.now().UTC()
	record := &models.NoteExport{
		ID:         uuid.NewString(),
		NoteID:     noteID,
		OwnerID:    ownerID,
		Format:     format,
		StorageKey: exportStorageKey(ownerID, rendered.Filename, now),
		CreatedAt:  now,
	}

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.config.S3Bucket),
		Key:                aws.String(record.StorageKey),
		Body:               bytes.NewReader(rendered.Body),
		ContentType:        aws.String(rendered.ContentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", rendered.Filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading export: %w", err)
	}

	if err := s.repomanager.Exports(s.db).Create(ctx, record); err != nil {
		return nil, fmt.Errorf("error saving export: %w", err)
	}

	return s.presign(ctx, presigner, record)
}

// ListExports returns earlier exports of a note with fresh download URLs.
func (s *ExportService) ListExports(ctx context.Context, ownerID, noteID string) ([]*ExportResult, error) {
	if !s.Enabled() {
		return nil, ErrExportDisabled
	}

	if _, err := s.notes.Get(ctx, ownerID, noteID); err != nil {
		return nil, err
	}

	records, err := s.repomanager.Exports(s.db).ListByNote(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}

	_, presigner, err := s.getClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating s3 client: %w", err)
	}

	result := make([]*ExportResult, 0, len(records))
	for _, r := range records {
		item, err := s.presign(ctx, presigner, r)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *ExportService) presign(ctx context.Context, presigner *s3.PresignClient, record *models.NoteExport) (*ExportResult, error) {
	req, err := presignGetObject(presigner, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(record.StorageKey),
	}, s3.WithPresignExpires(exportURLValidity))
	if err != nil {
		return nil, fmt.Errorf("error presigning export: %w", err)
	}

	return &ExportResult{
		ID:        record.ID,
		Key:       record.StorageKey,
		Format:    record.Format,
		URL:       req.URL,
		CreatedAt: record.CreatedAt,
		ExpiresAt: s.now().UTC().Add(exportURLValidity),
	}, nil
}

func (s *ExportService) getClients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, newS3PresignClient(client), nil
}

func exportStorageKey(ownerID, filename string, t time.Time) string {
	return fmt.Sprintf("exports/%s/%d/%02d/%02d/%s/%s", ownerID, t.Year(), t.Month(), t.Day(), uuid.New(), filename)
}
