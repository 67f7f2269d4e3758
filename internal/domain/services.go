package domain

import (
	"context"
)

// EntryFetcher retrieves the current entry from the remote API
type EntryFetcher interface {
	// FetchEntry issues exactly one request for an entry
	FetchEntry(ctx context.Context) (*Entry, error)
}

// ImageDownloader retrieves raw image bytes
type ImageDownloader interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}

// Display shows an image file on the physical frame
type Display interface {
	Show(ctx context.Context, imagePath string) error
}
