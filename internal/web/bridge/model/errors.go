package model

import "errors"

// ErrInvalidReference is returned when no usable file identifier can be
// extracted from the request.
var ErrInvalidReference = errors.New("invalid file reference")

// ErrInvalidName is returned when a target filename is empty after sanitization.
var ErrInvalidName = errors.New("invalid file name")

// ErrNotFound is returned when the storage service does not know the file id.
var ErrNotFound = errors.New("file not found")

// ErrPermission is returned when the storage service denies access.
// Callers must surface the share-with-service-account remediation hint.
var ErrPermission = errors.New("permission denied")

// ErrRecordNotFound is returned when the record database has no such record.
var ErrRecordNotFound = errors.New("record not found")

// ErrStorageFull is returned when the staging directory cannot hold more bytes.
var ErrStorageFull = errors.New("staging storage full")

// ErrTransfer is returned for any other transport failure against the
// storage or record service, timeouts included.
var ErrTransfer = errors.New("transfer failed")

// ErrDownload is returned when fetching bytes from an arbitrary URL fails.
var ErrDownload = errors.New("download failed")
