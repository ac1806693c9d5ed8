package apiclient

import (
	"bytes"
	"errors"
	"mime/multipart"
)

// FilePart is a file attached to a multipart request.
type FilePart struct {
	Field    string
	Filename string
	Content  []byte
}

// MultipartBody encodes form fields and optional files into a multipart/form-data
// payload, returning the body and the Content-Type to send it with. The payload
// is a plain byte slice so the client can replay it after a token refresh.
func MultipartBody(fields map[string]string, files ...FilePart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", errors.Join(ErrEncodeFailed, err)
		}
	}

	for _, f := range files {
		if f.Field == "" || f.Filename == "" {
			return nil, "", ErrInvalidFilePart
		}
		fw, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", errors.Join(ErrEncodeFailed, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return nil, "", errors.Join(ErrEncodeFailed, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Join(ErrEncodeFailed, err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
