// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"findash/internal/core"
	"findash/internal/ledger"
)

var errNoFile = errors.New("no file was uploaded")

// SelectionParams holds the year and tab requested by a chart view.
// Zero values mean "keep the current selection".
type SelectionParams struct {
	Year int
	Tab  core.Label
}

// ParseSelection extracts year and tab from query parameters. Missing values
// are left zero; malformed ones are an error.
func ParseSelection(query url.Values) (SelectionParams, error) {
	var params SelectionParams

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return SelectionParams{}, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("tab")); v != "" {
		tab, err := core.ParseLabel(v)
		if err != nil {
			return SelectionParams{}, fmt.Errorf("invalid tab %q", v)
		}
		params.Tab = tab
	}
	return params, nil
}

// ParseUpload reads the multipart "file" field into a ledger.Upload. The
// returned close function releases the file and must be called.
func ParseUpload(r *http.Request, maxBytes int64) (ledger.Upload, func(), error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ledger.Upload{}, nil, &ledger.UploadError{Reason: "file is too large", Err: err}
		}
		return ledger.Upload{}, nil, &ledger.UploadError{Reason: "invalid upload request", Err: err}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return ledger.Upload{}, nil, &ledger.UploadError{Reason: errNoFile.Error(), Err: errNoFile}
	}

	u := ledger.Upload{
		Filename:    sanitizeInput(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return u, func() { _ = file.Close() }, nil
}
