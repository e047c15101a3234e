package render

import (
	"encoding/base64"
	"strings"
)

// EncodeDataURL wraps bytes in a base64 data URL
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its media type and payload
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, &DecodeError{Message: "not a data URL"}
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return "", nil, &DecodeError{Message: "data URL has no payload"}
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, &DecodeError{Message: "only base64 data URLs are supported"}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, &DecodeError{Message: "invalid base64 payload", Cause: err}
	}
	return mime, data, nil
}
