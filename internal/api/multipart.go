package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/stemsi/examtester/internal/response"
)

type formField struct {
	Name  string
	Value string
}

type formFile struct {
	Field string
	Path  string
}

// sendMultipart uploads scalar fields plus one file as multipart/form-data.
func (c *Client) sendMultipart(ctx context.Context, path string, fields []formField, file formFile, fallback string, out interface{}) error {
	body, contentType, err := encodeMultipart(fields, file)
	if err != nil {
		return response.Wrap(err, fallback)
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, fallback, out)
}

func encodeMultipart(fields []formField, file formFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}

	src, err := os.Open(file.Path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", file.Path, err)
	}
	defer src.Close()

	name := filepath.Base(file.Path)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, name))
	h.Set("Content-Type", contentTypeFor(name))

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("copy %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func contentTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
