package ledger

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"findash/internal/core"
)

// Format is the decoder selected for an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Content types accepted per format. Browsers frequently send
// application/octet-stream or nothing at all, so those are tolerated.
var allowedContentTypes = map[Format]map[string]bool{
	FormatCSV: {
		"text/csv":                 true,
		"text/plain":               true,
		"application/csv":          true,
		"application/vnd.ms-excel": true,
		"application/octet-stream": true,
		"":                         true,
	},
	FormatXLSX: {
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
		"application/zip":          true,
		"application/octet-stream": true,
		"":                         true,
	},
}

// Upload is a file received from the browser.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// DetectFormat validates the filename extension and declared content type.
func DetectFormat(filename, contentType string) (Format, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		format = FormatCSV
	case ".xlsx":
		format = FormatXLSX
	default:
		return "", &UploadError{Reason: "only .csv and .xlsx files are supported"}
	}

	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", &UploadError{Reason: "invalid content type", Err: err}
		}
		mediaType = strings.ToLower(mt)
	}
	if !allowedContentTypes[format][mediaType] {
		return "", &UploadError{Reason: fmt.Sprintf("content type %q does not match a .%s file", mediaType, format)}
	}
	return format, nil
}

// MaxUploadBytes is the size limit applied by LoadUpload.
func (l *Loader) MaxUploadBytes() int64 {
	return l.maxUploadBytes
}

// LoadUpload validates and decodes an uploaded file into a dataset. Every
// failure is returned as an *UploadError wrapping the underlying cause, so
// callers can keep the previous dataset and report the reason.
func (l *Loader) LoadUpload(u Upload) (*core.Dataset, error) {
	format, err := DetectFormat(u.Filename, u.ContentType)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(u.Body, l.maxUploadBytes+1))
	if err != nil {
		return nil, &UploadError{Reason: "could not read the uploaded file", Err: err}
	}
	if int64(len(data)) > l.maxUploadBytes {
		return nil, &UploadError{Reason: fmt.Sprintf("file exceeds the %s limit", humanize.IBytes(uint64(l.maxUploadBytes)))}
	}
	if len(data) == 0 {
		return nil, &UploadError{Reason: "the file is empty", Err: ErrEmptyFile}
	}

	var txs []core.Transaction
	switch format {
	case FormatXLSX:
		txs, err = l.ParseXLSX(bytes.NewReader(data))
	default:
		txs, err = l.ParseCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, &UploadError{Reason: UserMessage(err), Err: err}
	}
	if len(txs) == 0 {
		return nil, &UploadError{Reason: "the file contains no transactions", Err: core.ErrEmptyDataset}
	}
	return core.NewDataset(filepath.Base(u.Filename), SourceUpload, txs), nil
}
