// Package drive wraps the Google Drive v3 API for the bridge: fetch, rename,
// trash and upload, with storage-service errors mapped onto the bridge's
// error taxonomy.
package drive

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	driveSDK "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/model"
)

// workspace files have no binary content of their own, export them as PDF
const (
	workspaceMimePrefix = "application/vnd.google-apps"
	exportMime          = "application/pdf"
)

var fileIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9-_]+)`),
}

// ExtractFileID pulls a Drive file id out of a share URL. Returns "" when the
// URL matches no known format.
func ExtractFileID(rawURL string) string {
	for _, p := range fileIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}

	return ""
}

// File is a downloaded Drive file.
type File struct {
	ID       string
	Name     string
	MimeType string
	Content  []byte
}

// UploadedFile is the result of pushing bytes into Drive.
type UploadedFile struct {
	ID      string
	Name    string
	WebLink string
}

// Client talks to Google Drive with a service-account identity.
type Client struct {
	svc *driveSDK.Service

	// shown in permission-error hints so operators know whom to share with
	serviceAccountEmail string
}

// New builds an authenticated client from a service-account credential file.
func New(ctx context.Context, credentialFile, serviceAccountEmail string) (*Client, error) {
	svc, err := driveSDK.NewService(ctx,
		option.WithCredentialsFile(credentialFile),
		option.WithScopes(driveSDK.DriveScope),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create drive service")
	}

	return &Client{
		svc:                 svc,
		serviceAccountEmail: serviceAccountEmail,
	}, nil
}

// Fetch downloads file bytes and metadata. Google Workspace documents,
// spreadsheets and slides are exported as PDF with the name adjusted to match.
func (c *Client) Fetch(ctx context.Context, fileID string) (*File, error) {
	logger := gmw.GetLogger(ctx)

	meta, err := c.svc.Files.Get(fileID).
		Fields("id", "name", "mimeType", "size").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return nil, c.mapErr(err, "get file metadata")
	}

	var body io.ReadCloser
	name := meta.Name
	mimeType := meta.MimeType
	switch {
	case strings.HasPrefix(meta.MimeType, workspaceMimePrefix):
		if !exportableWorkspaceMime(meta.MimeType) {
			return nil, errors.Wrapf(model.ErrTransfer,
				"unsupported google workspace type `%s`", meta.MimeType)
		}

		r, err := c.svc.Files.Export(fileID, exportMime).Context(ctx).Download()
		if err != nil {
			return nil, c.mapErr(err, "export file")
		}
		body = r.Body
		name = exportedName(meta.Name)
		mimeType = exportMime
	default:
		r, err := c.svc.Files.Get(fileID).
			SupportsAllDrives(true).
			Context(ctx).Download()
		if err != nil {
			return nil, c.mapErr(err, "download file")
		}
		body = r.Body
	}
	defer func() { _ = body.Close() }()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(model.ErrTransfer, err.Error())
	}

	logger.Debug("fetched drive file",
		zap.String("file_id", fileID),
		zap.String("name", name),
		zap.Int("size", len(content)))
	return &File{
		ID:       fileID,
		Name:     name,
		MimeType: mimeType,
		Content:  content,
	}, nil
}

// Rename applies newName and returns the name Drive reports back.
func (c *Client) Rename(ctx context.Context, fileID, newName string) (string, error) {
	updated, err := c.svc.Files.Update(fileID, &driveSDK.File{Name: newName}).
		Fields("id", "name").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", c.mapErr(err, "rename file")
	}

	return updated.Name, nil
}

// Trash moves the file to the Drive trash.
func (c *Client) Trash(ctx context.Context, fileID string) error {
	_, err := c.svc.Files.Update(fileID, &driveSDK.File{Trashed: true}).
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return c.mapErr(err, "trash file")
	}

	return nil
}

// Upload creates a new file, under folderID when given.
func (c *Client) Upload(ctx context.Context,
	name, mimeType string, content []byte, folderID string) (*UploadedFile, error) {
	meta := &driveSDK.File{Name: name}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	created, err := c.svc.Files.Create(meta).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id", "name", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return nil, c.mapErr(err, "upload file")
	}

	return &UploadedFile{
		ID:      created.Id,
		Name:    created.Name,
		WebLink: created.WebViewLink,
	}, nil
}

// mapErr converts a googleapi failure to the bridge taxonomy.
func (c *Client) mapErr(err error, op string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 404:
			return errors.Wrap(model.ErrNotFound, op)
		case 403:
			return errors.Wrapf(model.ErrPermission,
				"%s: share the file with the service account `%s` and grant editor access",
				op, c.serviceAccountEmail)
		}
	}

	return errors.Wrapf(model.ErrTransfer, "%s: %s", op, err.Error())
}

func exportableWorkspaceMime(mime string) bool {
	for _, kind := range []string{"document", "spreadsheet", "presentation"} {
		if strings.Contains(mime, kind) {
			return true
		}
	}

	return false
}

// exportedName swaps the Workspace extension for .pdf.
func exportedName(name string) string {
	for _, ext := range []string{".gdoc", ".gsheet", ".gslides"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext) + ".pdf"
		}
	}

	return name + ".pdf"
}
