package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethanbaker/recruiter/pkg/fetch"
	"github.com/ethanbaker/recruiter/pkg/utils"
)

// ProfileData is the structured result of one profile scrape.
type ProfileData struct {
	URL      string   `json:"url"`
	Name     string   `json:"name"`
	Position string   `json:"position,omitempty"`
	Company  string   `json:"company,omitempty"`
	Location string   `json:"location,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

// Scraper is the boundary to the external profile-scraping collaborator.
// Implementations return a permanent fetch error when the profile does not
// exist.
type Scraper interface {
	FetchProfile(ctx context.Context, url string) (*ProfileData, error)
	SearchProfile(ctx context.Context, name, companyHint string) (*ProfileData, error)
}

// HTTPScraper talks to the scraping service over its JSON API.
type HTTPScraper struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPScraper creates a scraper client from configuration. SCRAPER_URL
// points at the scraping service.
func NewHTTPScraper(cfg *utils.Config) (*HTTPScraper, error) {
	baseURL := cfg.Get("SCRAPER_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("SCRAPER_URL not set in environment")
	}

	return &HTTPScraper{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// FetchProfile retrieves a profile directly by URL
func (s *HTTPScraper) FetchProfile(ctx context.Context, url string) (*ProfileData, error) {
	return s.post(ctx, "/profile", map[string]string{"url": url})
}

// SearchProfile locates a profile by name, optionally narrowed by company
func (s *HTTPScraper) SearchProfile(ctx context.Context, name, companyHint string) (*ProfileData, error) {
	return s.post(ctx, "/search", map[string]string{
		"name":    name,
		"company": companyHint,
	})
}

func (s *HTTPScraper) post(ctx context.Context, path string, body map[string]string) (*ProfileData, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scraper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fetch.WrapError(err, fetch.KindTransient)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fetch.StatusError(resp.StatusCode, resp.Header, fmt.Sprintf("scraper returned %d for %s", resp.StatusCode, path))
	}

	var profile ProfileData
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fetch.WrapError(fmt.Errorf("failed to decode scraper response: %w", err), fetch.KindTransient)
	}

	return &profile, nil
}
