package webdav

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// Ensure Transport implements the interface.
var _ driven.BackupTransport = (*Transport)(nil)

// backupDir is the collection under the configured base URL that holds
// backup documents.
const backupDir = "tabdeck-backups"

// requestTimeout bounds every WebDAV round trip.
const requestTimeout = 30 * time.Second

// Transport moves backup documents to and from a WebDAV server using
// basic auth. Only plain collection and file operations are used, so
// any standards-compliant server works.
type Transport struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewTransport creates a transport for the configured sync target.
func NewTransport(cfg domain.WebDAVSettings) (*Transport, error) {
	if !cfg.Configured() {
		return nil, domain.ErrSyncNotConfigured
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid webdav url: %v", domain.ErrInvalidInput, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: webdav url must be http or https", domain.ErrInvalidInput)
	}

	return &Transport{
		baseURL:  strings.TrimSuffix(base.String(), "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: requestTimeout},
	}, nil
}

// Test verifies the server is reachable with the configured
// credentials.
func (t *Transport) Test(ctx context.Context) error {
	resp, err := t.do(ctx, "PROPFIND", t.baseURL, nil, map[string]string{"Depth": "0"})
	if err != nil {
		return fmt.Errorf("reaching server: %w", err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: server rejected credentials", domain.ErrInvalidInput)
	case resp.StatusCode >= 400:
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

// Upload stores a backup document under name, creating the backup
// collection if needed.
func (t *Transport) Upload(ctx context.Context, name string, data []byte) error {
	if err := t.ensureDir(ctx); err != nil {
		return err
	}

	resp, err := t.do(ctx, http.MethodPut, t.fileURL(name), bytes.NewReader(data), nil)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	defer drain(resp)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("uploading %s: server returned %s", name, resp.Status)
	}
	return nil
}

// Download retrieves a backup document by name.
func (t *Transport) Download(ctx context.Context, name string) ([]byte, error) {
	resp, err := t.do(ctx, http.MethodGet, t.fileURL(name), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", name, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("downloading %s: server returned %s", name, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// List returns the remote backups, newest first. A missing backup
// collection lists as empty.
func (t *Transport) List(ctx context.Context) ([]driven.RemoteBackup, error) {
	resp, err := t.do(ctx, "PROPFIND", t.dirURL(), nil, map[string]string{"Depth": "1"})
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("listing backups: server returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}
	backups, err := parseListing(body)
	if err != nil {
		return nil, err
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModifiedAt.After(backups[j].ModifiedAt)
	})
	return backups, nil
}

// Delete removes a remote backup.
func (t *Transport) Delete(ctx context.Context, name string) error {
	resp, err := t.do(ctx, http.MethodDelete, t.fileURL(name), nil, nil)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	case resp.StatusCode >= 400:
		return fmt.Errorf("deleting %s: server returned %s", name, resp.Status)
	}
	return nil
}

// ensureDir creates the backup collection. Servers answer an existing
// collection with 405, which is fine.
func (t *Transport) ensureDir(ctx context.Context) error {
	resp, err := t.do(ctx, "MKCOL", t.dirURL(), nil, nil)
	if err != nil {
		return fmt.Errorf("creating backup collection: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusMethodNotAllowed {
		return fmt.Errorf("creating backup collection: server returned %s", resp.Status)
	}
	return nil
}

func (t *Transport) do(ctx context.Context, method, target string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(t.username, t.password)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return t.client.Do(req)
}

func (t *Transport) dirURL() string {
	return t.baseURL + "/" + backupDir
}

func (t *Transport) fileURL(name string) string {
	return t.dirURL() + "/" + url.PathEscape(name)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// multistatus is the subset of the PROPFIND response we need.
type multistatus struct {
	Responses []struct {
		Href     string `xml:"href"`
		Propstat []struct {
			Prop struct {
				ContentLength string `xml:"getcontentlength"`
				LastModified  string `xml:"getlastmodified"`
			} `xml:"prop"`
		} `xml:"propstat"`
	} `xml:"response"`
}

// parseListing extracts backup entries from a Depth 1 PROPFIND body.
// The collection itself and anything that is not a .json document are
// skipped.
func parseListing(body []byte) ([]driven.RemoteBackup, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, fmt.Errorf("parsing listing: %w", err)
	}

	var backups []driven.RemoteBackup
	for _, r := range ms.Responses {
		href, err := url.PathUnescape(r.Href)
		if err != nil {
			href = r.Href
		}
		name := path.Base(strings.TrimSuffix(href, "/"))
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		b := driven.RemoteBackup{Name: name}
		for _, ps := range r.Propstat {
			if ps.Prop.ContentLength != "" {
				if size, err := strconv.ParseInt(ps.Prop.ContentLength, 10, 64); err == nil {
					b.Size = size
				}
			}
			if ps.Prop.LastModified != "" {
				if mod, err := http.ParseTime(ps.Prop.LastModified); err == nil {
					b.ModifiedAt = mod
				}
			}
		}
		backups = append(backups, b)
	}
	return backups, nil
}
