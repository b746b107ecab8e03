package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"docchat/utils"
	"docchat/workspace"

	"go.uber.org/zap"
)

type UploadService struct {
	maxBytes int64
	logger   *zap.Logger
}

func NewUploadService(maxBytes int64, logger *zap.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = workspace.DefaultMaxUploadBytes
	}
	return &UploadService{
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Documents turns the files of a multipart form into workspace documents.
// Contents under the size ceiling are copied into memory because the
// request's temporary files are gone once the handler returns; larger files
// are described but never read, the validator rejects them on size.
func (us *UploadService) Documents(files []*multipart.FileHeader) ([]workspace.Document, error) {
	docs := make([]workspace.Document, 0, len(files))
	for _, fh := range files {
		name := utils.SanitizeFilename(fh.Filename)
		if name == "" {
			name = "document"
		}
		doc := workspace.Document{
			Name:        name,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return nil, fmt.Errorf("%s was not buffered", name)
			},
		}

		// Multiple files are rejected before any content is needed.
		if len(files) == 1 && fh.Size < us.maxBytes {
			data, err := readAll(fh)
			if err != nil {
				us.logger.Error("Failed to read uploaded file",
					zap.String("filename", name),
					zap.Error(err))
				return nil, fmt.Errorf("could not read %s: %w", name, err)
			}
			doc.Open = func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			}
		}

		docs = append(docs, doc)
	}
	return docs, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
