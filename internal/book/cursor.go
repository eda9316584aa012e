package book

import (
	"encoding/base64"
	"time"

	"github.com/goccy/go-json"
)

// CursorData is the position of the last listing on a page.
type CursorData struct {
	AfterID   string `json:"after_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// EncodeCursor encodes cursor data to a base64 string
func EncodeCursor(data CursorData) string {
	if data.AfterID == "" {
		return ""
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to CursorData
func DecodeCursor(cursor string) (CursorData, error) {
	if cursor == "" {
		return CursorData{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return CursorData{}, err
	}

	var data CursorData
	if err := json.Unmarshal(decoded, &data); err != nil {
		return CursorData{}, err
	}
	return data, nil
}

func cursorFor(l Listing) CursorData {
	return CursorData{AfterID: l.ID, CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339Nano)}
}

// Time parses CreatedAt.
func (c CursorData) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.CreatedAt)
}
