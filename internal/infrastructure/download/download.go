// Package download fetches the government source files and caches them
// in the data directory. A file already on disk is never re-fetched.
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	pricePaidURLFormat = "http://prod.publicdata.landregistry.gov.uk.s3-website-eu-west-1.amazonaws.com/pp-%d.csv"
	postcodeURL        = "https://www.getthedata.com/downloads/open_postcode_geo.csv.zip"
	postcodeZipName    = "open_postcode_geo.csv.zip"
)

type Client struct {
	dataDir string
	http    *http.Client
	logger  zerolog.Logger
}

func NewClient(dataDir string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		dataDir: dataDir,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// PricePaid downloads one yearly price-paid CSV and returns its local
// path.
func (c *Client) PricePaid(ctx context.Context, year int) (string, error) {
	url := fmt.Sprintf(pricePaidURLFormat, year)
	return c.fetch(ctx, url, fmt.Sprintf("pp-%d.csv", year))
}

// PostcodeCoordinates downloads and unzips the postcode coordinates
// file and returns the path of the extracted CSV.
func (c *Client) PostcodeCoordinates(ctx context.Context) (string, error) {
	path, err := c.fetch(ctx, postcodeURL, postcodeZipName)
	if err != nil {
		return "", err
	}
	if err := c.unzip(path); err != nil {
		return "", err
	}
	return filepath.Join(c.dataDir, "open_postcode_geo.csv"), nil
}

func (c *Client) fetch(ctx context.Context, url, filename string) (string, error) {
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(c.dataDir, filename)
	if _, err := os.Stat(path); err == nil {
		c.logger.Debug().Str("path", path).Msg("file already cached")
		return path, nil
	}

	c.logger.Info().Str("url", url).Msg("downloading")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	// Write to a temp name first so a failed download never leaves a
	// truncated file behind to be treated as cached.
	tmp, err := os.CreateTemp(c.dataDir, filename+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return path, nil
}

func (c *Client) unzip(path string) error {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", path, err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		target := filepath.Join(c.dataDir, filepath.Base(entry.Name))
		if _, err := os.Stat(target); err == nil {
			continue
		}
		src, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", entry.Name, err)
		}
		dst, err := os.Create(target)
		if err != nil {
			src.Close()
			return fmt.Errorf("create %s: %w", target, err)
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
	}
	return nil
}
