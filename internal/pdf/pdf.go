// Package pdf downloads and manages order/judgment PDF artifacts.
package pdf

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	ledongpdf "github.com/ledongthuc/pdf"

	"casetracker/pkg/logger"
)

// ErrDownload means the PDF could not be fetched or written.
var ErrDownload = errors.New("pdf download failed")

const (
	fallbackPrefix  = "court_document"
	timestampFormat = "20060102_150405"
	downloadTimeout = 60 * time.Second
)

// Fetcher downloads PDFs into a flat directory, deduplicating by the
// URL-derived filename stem.
type Fetcher struct {
	dir    string
	log    *logger.Logger
	client *resty.Client
}

// FileInfo describes one downloaded PDF.
type FileInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Pages    int       `json:"pages,omitempty"`
}

func NewFetcher(dir string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		dir: dir,
		log: log,
		client: resty.New().
			SetTimeout(downloadTimeout).
			SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	}
}

// Download fetches rawURL into the downloads directory and returns the local
// path. A file whose stem matches the URL is reused instead of re-fetched;
// fresh downloads get a timestamp suffix so repeated fetches never collide.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, error) {
	rawURL, err := url.QueryUnescape(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad url encoding: %v", ErrDownload, err)
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", fmt.Errorf("%w: unsupported url scheme", ErrDownload)
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	// Reuse an earlier download of the same URL
	stem := filenameStem(rawURL)
	if existing := f.findExisting(stem); existing != "" {
		f.log.Info("PDF already downloaded", "path", existing)
		return existing, nil
	}

	dest := filepath.Join(f.dir, Filename(rawURL, time.Now()))

	f.log.Info("Downloading PDF", "url", rawURL)
	resp, err := f.client.R().SetContext(ctx).SetOutput(dest).Get(rawURL)
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if !resp.IsSuccess() {
		os.Remove(dest)
		return "", fmt.Errorf("%w: status %s", ErrDownload, resp.Status())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "pdf") {
		f.log.Warn("Downloaded content may not be a PDF", "content_type", contentType)
	}

	f.log.Info("PDF downloaded", "path", dest)
	return dest, nil
}

// Filename derives a download filename from the URL: the path's base name
// when usable, otherwise a hash-derived fallback stem, always with a
// timestamp suffix and a .pdf extension.
func Filename(rawURL string, now time.Time) string {
	return fmt.Sprintf("%s_%s.pdf", filenameStem(rawURL), now.Format(timestampFormat))
}

func filenameStem(rawURL string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "." || base == "/" || !strings.Contains(base, ".") {
		hash := md5.Sum([]byte(rawURL))
		return fmt.Sprintf("%s_%x", fallbackPrefix, hash[:4])
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// findExisting returns a previously downloaded file with the given stem.
func (f *Fetcher) findExisting(stem string) string {
	matches, err := filepath.Glob(filepath.Join(f.dir, stem+"_*.pdf"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

// ExtractText pulls the plain text out of a downloaded PDF.
func (f *Fetcher) ExtractText(pdfPath string) (string, error) {
	file, reader, err := ledongpdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer file.Close()

	body, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Info returns basic metadata about a downloaded PDF. Page count is best
// effort: a file that does not parse still reports name, size and mtime.
func (f *Fetcher) Info(pdfPath string) (*FileInfo, error) {
	stat, err := os.Stat(pdfPath)
	if err != nil {
		return nil, err
	}

	info := &FileInfo{
		Filename: filepath.Base(pdfPath),
		Path:     pdfPath,
		Size:     stat.Size(),
		Modified: stat.ModTime(),
	}

	if file, reader, err := ledongpdf.Open(pdfPath); err == nil {
		info.Pages = reader.NumPage()
		file.Close()
	} else {
		f.log.Warn("Could not read PDF metadata", "path", pdfPath, "error", err)
	}

	return info, nil
}

// List returns the downloaded PDFs, newest first.
func (f *Fetcher) List() ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.pdf"))
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(matches))
	for _, m := range matches {
		info, err := f.Info(m)
		if err != nil {
			continue
		}
		files = append(files, *info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

// Cleanup removes downloaded PDFs older than maxAge and reports how many
// were removed.
func (f *Fetcher) Cleanup(maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.pdf"))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, m := range matches {
		stat, err := os.Stat(m)
		if err != nil || stat.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(m); err != nil {
			f.log.Warn("Failed to remove old PDF", "path", m, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		f.log.Info("Pruned old PDFs", "count", removed)
	}
	return removed, nil
}
