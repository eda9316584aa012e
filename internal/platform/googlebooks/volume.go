// Package googlebooks is a small client for the Google Books volumes API.
package googlebooks

// VolumesResponse matches GET /volumes.
type VolumesResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	PublishedDate       string               `json:"publishedDate"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	ImageLinks          *ImageLinks          `json:"imageLinks,omitempty"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// IndustryIdentifier is a tagged identifier such as {"type":"ISBN_13"}.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}
