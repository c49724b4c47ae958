package wallpaper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.WallpaperProvider = (*Provider)(nil)

// DefaultBaseURL is the public picsum.photos endpoint.
const DefaultBaseURL = "https://picsum.photos"

// Image dimensions requested from the provider.
const (
	imageWidth  = 1920
	imageHeight = 1080
)

// Provider fetches random background images from a picsum-compatible
// server. Requests are rate limited so a rotation loop cannot hammer
// the public service.
type Provider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	seed    func() int
}

// NewProvider creates a provider against baseURL, or the public
// service when baseURL is empty.
func NewProvider(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		seed:    rand.Int,
	}
}

// Fetch retrieves a random image for the category. The category feeds
// the image seed, so distinct categories yield distinct image streams.
func (p *Provider) Fetch(ctx context.Context, category string) (domain.WallpaperInfo, []byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.WallpaperInfo{}, nil, err
	}

	imageURL := fmt.Sprintf("%s/seed/%s-%d/%d/%d", p.baseURL, category, p.seed(), imageWidth, imageHeight)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return domain.WallpaperInfo{}, nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.WallpaperInfo{}, nil, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WallpaperInfo{}, nil, fmt.Errorf("fetching image: server returned %s", resp.Status)
	}
	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WallpaperInfo{}, nil, fmt.Errorf("reading image: %w", err)
	}

	info := domain.WallpaperInfo{
		ID:  resp.Header.Get("Picsum-Id"),
		URL: imageURL,
	}
	// Attribution is a nice-to-have; the image alone is a usable
	// result.
	if info.ID != "" {
		if meta, err := p.fetchInfo(ctx, info.ID); err == nil {
			info = meta
		}
	}
	return info, image, nil
}

// picsumInfo is the provider's image metadata document.
type picsumInfo struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	DownloadURL string `json:"download_url"`
}

func (p *Provider) fetchInfo(ctx context.Context, id string) (domain.WallpaperInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/id/%s/info", p.baseURL, id), nil)
	if err != nil {
		return domain.WallpaperInfo{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.WallpaperInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WallpaperInfo{}, fmt.Errorf("server returned %s", resp.Status)
	}
	var meta picsumInfo
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return domain.WallpaperInfo{}, err
	}
	return domain.WallpaperInfo{
		ID:          meta.ID,
		URL:         meta.URL,
		ThumbURL:    fmt.Sprintf("%s/id/%s/%d/%d", p.baseURL, meta.ID, imageWidth/8, imageHeight/8),
		Author:      meta.Author,
		AuthorURL:   meta.URL,
		DownloadURL: meta.DownloadURL,
	}, nil
}
