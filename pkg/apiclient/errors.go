package apiclient

import "errors"

var (
	// ErrInvalidRequest indicates the request could not be built
	ErrInvalidRequest = errors.New("apiclient.invalid_request")

	// ErrEncodeFailed indicates the request body could not be encoded
	ErrEncodeFailed = errors.New("apiclient.encode_failed")

	// ErrDecodeFailed indicates the response body could not be decoded
	ErrDecodeFailed = errors.New("apiclient.decode_failed")

	// ErrEmptyBody indicates a decode was attempted on an empty response
	ErrEmptyBody = errors.New("apiclient.empty_body")

	// ErrInvalidFilePart indicates a multipart file part is missing its field or filename
	ErrInvalidFilePart = errors.New("apiclient.invalid_file_part")
)
