// Package dto defines the request and response shapes of the bridge
// endpoints. Each endpoint has an explicit struct; loose payload probing is
// rejected at the edge.
package dto

// PrepareRequest asks for a Drive file to be staged for AI analysis.
// Either FileID or DriveURL must be set.
type PrepareRequest struct {
	FileID   string `json:"file_id"`
	DriveURL string `json:"drive_url"`
	RecordID string `json:"record_id" binding:"required"`
}

// PrepareResponse reports the staged file and its extracted text.
type PrepareResponse struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Message string `json:"message,omitempty"`

	FileID         string `json:"file_id,omitempty"`
	FileName       string `json:"file_name,omitempty"`
	MimeType       string `json:"mime_type,omitempty"`
	FileSize       int64  `json:"file_size,omitempty"`
	ExtractedText  string `json:"extracted_text,omitempty"`
	AttachmentPath string `json:"attachment_path,omitempty"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
}

// RenameRequest renames a Drive file to an explicit name.
type RenameRequest struct {
	FileID  string `json:"file_id" binding:"required"`
	NewName string `json:"new_name" binding:"required"`
}

// RenameResponse confirms the applied name.
type RenameResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	NewName string `json:"new_name,omitempty"`
}

// AutoRenameRequest renames a Drive file to the name stored on its record.
// FileID overrides the record's file-id field when the automation already
// knows it.
type AutoRenameRequest struct {
	RecordID string `json:"record_id" binding:"required"`
	FileID   string `json:"file_id"`
}

// AutoRenameResponse reports the rename outcome; Success is false for a
// skipped rename (no suggested name, or unchanged).
type AutoRenameResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	FileID       string `json:"file_id,omitempty"`
	OriginalName string `json:"original_name,omitempty"`
	NewName      string `json:"new_name,omitempty"`
}

// DeleteRequest trashes a Drive file.
type DeleteRequest struct {
	FileID string `json:"file_id" binding:"required"`
}

// DeleteResponse distinguishes deleted from already-deleted.
type DeleteResponse struct {
	Success        bool   `json:"success"`
	AlreadyDeleted bool   `json:"already_deleted,omitempty"`
	Message        string `json:"message,omitempty"`
}

// UploadRequest pushes one or more attachment URLs into Drive.
// AttachmentURL and AttachmentURLs may be combined.
type UploadRequest struct {
	AttachmentURL  string   `json:"attachment_url"`
	AttachmentURLs []string `json:"attachment_urls"`
	FolderID       string   `json:"folder_id"`
	Filenames      []string `json:"filenames"`
}

// URLs merges the single and plural forms.
func (r *UploadRequest) URLs() []string {
	urls := make([]string, 0, len(r.AttachmentURLs)+1)
	if r.AttachmentURL != "" {
		urls = append(urls, r.AttachmentURL)
	}
	urls = append(urls, r.AttachmentURLs...)
	return urls
}

// TempFileInfo is one staged file in the /temp-files listing.
type TempFileInfo struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mime_type,omitempty"`
	CreatedAt string `json:"created"`
	ExpiresAt string `json:"expires"`
}

// TempFilesResponse is the /temp-files listing.
type TempFilesResponse struct {
	Success   bool           `json:"success"`
	TempDir   string         `json:"temp_dir"`
	FileCount int            `json:"file_count"`
	TotalSize int64          `json:"total_size_bytes"`
	Files     []TempFileInfo `json:"files"`
}

// CleanupResponse reports how many staged files were removed.
type CleanupResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}

// ErrorResponse is the uniform failure payload.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}
