package domain

import "time"

// Entry is one prompt/image pair returned by the entry endpoint
type Entry struct {
	Prompt string `json:"prompt"`
	Images Images `json:"images"`
}

// Images holds the image variants of an entry
type Images struct {
	Small string `json:"small"`
}

// Source tells where the image shown by a refresh came from
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// EntryRecord is the outcome of one refresh
type EntryRecord struct {
	ID        int64     `json:"id"`
	Prompt    string    `json:"prompt"`
	ImageURL  string    `json:"image_url"`
	ImagePath string    `json:"image_path"`
	Source    Source    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}
