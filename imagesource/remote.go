package imagesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// MaxRemoteSize limits the body read from a remote source.
const MaxRemoteSize = 256 << 20

// Remote is an image fetched over HTTP(S).
type Remote struct {
	URL string

	// Client is used for the request. A nil Client uses
	// http.DefaultClient.
	Client *http.Client
}

// ID returns the URL.
func (r Remote) ID() string { return r.URL }

// Decode fetches and decodes the image.
func (r Remote) Decode(ctx context.Context) (Pixels, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return Pixels{}, fmt.Errorf("imagesource: %s: %w", r.URL, err)
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Pixels{}, fmt.Errorf("imagesource: fetch %s: %w", r.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Pixels{}, fmt.Errorf("imagesource: fetch %s: %s", r.URL, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxRemoteSize+1))
	if err != nil {
		return Pixels{}, fmt.Errorf("imagesource: read %s: %w", r.URL, err)
	}
	if len(data) > MaxRemoteSize {
		return Pixels{}, fmt.Errorf("imagesource: %s exceeds %d bytes", r.URL, MaxRemoteSize)
	}
	return decodeBytes(r.URL, data)
}
