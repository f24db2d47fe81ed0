package dto

import (
	"io"
	"mime/multipart"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// MaxUploadSize bounds a single uploaded file
const MaxUploadSize = 20 << 20

// NewUploadDocumentRequest reads a multipart file part into an upload request.
// ProcedureID is left to the caller.
func NewUploadDocumentRequest(fh *multipart.FileHeader, title string, kind types.DocumentKind) (*UploadDocumentRequest, error) {
	content, err := ReadFormFile(fh)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = fh.Filename
	}
	if kind == "" {
		kind = types.DocumentKindOther
	}
	return &UploadDocumentRequest{
		Title:    title,
		Kind:     kind,
		FileName: fh.Filename,
		Content:  content,
	}, nil
}

// ReadFormFile returns the content of fh, rejecting files over MaxUploadSize
func ReadFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil {
		return nil, ierr.NewError("file is required").
			WithHint("Fichier manquant").
			Mark(ierr.ErrValidation)
	}
	if fh.Size > MaxUploadSize {
		return nil, ierr.NewError("file too large").
			WithHint("Fichier trop volumineux (20 Mo maximum)").
			WithReportableDetails(map[string]any{"size": fh.Size}).
			Mark(ierr.ErrValidation)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Fichier illisible").
			Mark(ierr.ErrValidation)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Fichier illisible").
			Mark(ierr.ErrValidation)
	}
	if len(content) > MaxUploadSize {
		return nil, ierr.NewError("file too large").
			WithHint("Fichier trop volumineux (20 Mo maximum)").
			Mark(ierr.ErrValidation)
	}
	return content, nil
}
