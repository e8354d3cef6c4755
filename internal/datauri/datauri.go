package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const scheme = "data:"

var (
	ErrMalformed    = errors.New("malformed data URI")
	ErrMissingMime  = errors.New("data URI is missing a MIME type")
	ErrNotBase64    = errors.New("data URI payload must be base64 encoded")
	ErrInvalidBytes = errors.New("data URI payload is not valid base64")
)

// DataURI is a decoded data URI of the form data:<mime>[;params];base64,<payload>.
type DataURI struct {
	MimeType string
	Data     []byte
}

// FromBytes builds a DataURI for an in-memory payload.
func FromBytes(mimeType string, data []byte) DataURI {
	return DataURI{MimeType: normalizeMime(mimeType), Data: data}
}

// Parse decodes raw into a DataURI. Only base64 payloads are accepted.
func Parse(raw string) (DataURI, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(scheme) || !strings.EqualFold(raw[:len(scheme)], scheme) {
		return DataURI{}, ErrMalformed
	}
	header, payload, ok := strings.Cut(raw[len(scheme):], ",")
	if !ok {
		return DataURI{}, ErrMalformed
	}

	params := strings.Split(header, ";")
	mimeType := normalizeMime(params[0])
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return DataURI{}, ErrMissingMime
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return DataURI{}, ErrNotBase64
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return DataURI{}, fmt.Errorf("%w: empty payload", ErrInvalidBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURI{}, fmt.Errorf("%w: %v", ErrInvalidBytes, err)
	}
	return DataURI{MimeType: mimeType, Data: data}, nil
}

// Encoded returns the base64 payload without the URI header.
func (d DataURI) Encoded() string {
	return base64.StdEncoding.EncodeToString(d.Data)
}

// String renders the full data URI.
func (d DataURI) String() string {
	return scheme + d.MimeType + ";base64," + d.Encoded()
}

// Size reports the decoded payload size in bytes.
func (d DataURI) Size() int64 {
	return int64(len(d.Data))
}

func normalizeMime(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
