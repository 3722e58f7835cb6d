package infra

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
)

// IconDownloader handles downloading and caching coin icons
type IconDownloader struct {
	basePath  string
	urlFormat string
	size      int
	client    *http.Client
}

// NewIconDownloader creates a new IconDownloader storing icons under basePath.
// urlFormat must contain a single %d for the coin ID.
func NewIconDownloader(basePath, urlFormat string, size int) (*IconDownloader, error) {
	// Ensure directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconDownloader{
		basePath:  basePath,
		urlFormat: urlFormat,
		size:      size,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// DownloadIcon downloads the icon for a coin if it isn't cached yet.
// Returns the local file path on success.
// Images are resized to size x size pixels for consistent display.
func (d *IconDownloader) DownloadIcon(ctx context.Context, coinID int64) (string, error) {
	if coinID <= 0 {
		return "", fmt.Errorf("invalid coin id: %d", coinID)
	}

	filePath := d.GetIconPath(coinID)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(d.urlFormat, coinID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	resizedImg := imaging.Resize(srcImg, d.size, d.size, imaging.Lanczos)

	// Each download writes its own temp file; the rename publishes it whole.
	// The ".part" suffix keeps temp names apart from "<id>.png" cache entries.
	tmp, err := os.CreateTemp(d.basePath, fmt.Sprintf("icon-%d-*.part", coinID))
	if err != nil {
		return "", fmt.Errorf("failed to create temp icon: %w", err)
	}
	tmpPath := tmp.Name()

	if err := imaging.Encode(tmp, resizedImg, imaging.PNG); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to encode resized image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write temp icon: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move icon into cache: %w", err)
	}

	GlobalMetrics.RecordIconDownload()
	return filePath, nil
}

// GetIconPath returns the local path for a coin's icon
func (d *IconDownloader) GetIconPath(coinID int64) string {
	return filepath.Join(d.basePath, strconv.FormatInt(coinID, 10)+".png")
}

// IconsDir returns the default icon cache directory.
func IconsDir() string {
	return filepath.Join(GetDataDir(), "assets", "icons")
}
