package linkedin

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethanbaker/recruiter/internal/stores/profilecache"
	"github.com/ethanbaker/recruiter/pkg/fetch"
	"github.com/ethanbaker/recruiter/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubScraper counts calls and serves canned profiles
type stubScraper struct {
	fetchCalls  atomic.Int64
	searchCalls atomic.Int64
	fetchErr    error
	searchErr   error
}

func (s *stubScraper) FetchProfile(ctx context.Context, url string) (*ProfileData, error) {
	s.fetchCalls.Add(1)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return &ProfileData{
		URL:      url,
		Name:     "Jane Doe",
		Position: "Staff Engineer",
		Company:  "Acme",
		Location: "Berlin",
		Skills:   []string{"Go", "Distributed Systems"},
	}, nil
}

func (s *stubScraper) SearchProfile(ctx context.Context, name, companyHint string) (*ProfileData, error) {
	s.searchCalls.Add(1)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return &ProfileData{
		URL:  "https://linkedin.com/in/found-by-search",
		Name: name,
	}, nil
}

func testOptions() fetch.Options {
	return fetch.Options{
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
		BackoffCap:  5 * time.Millisecond,
		Quota:       1000,
		Window:      time.Minute,
		Concurrency: 4,
	}
}

func hintedContributor(username, url string) workflow.ContributorRecord {
	return workflow.ContributorRecord{
		Username:      username,
		Name:          "Jane Doe",
		Contributions: 10,
		ProfileURL:    url,
	}
}

// Test a direct-URL match end to end
func TestMatch_DirectURL(t *testing.T) {
	scraper := &stubScraper{}
	agent := NewAgent(scraper, profilecache.NewInMemoryCache(), time.Hour, testOptions())

	profiles, err := agent.Match(context.Background(), []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/janedoe"),
	})
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	profile := profiles[0]
	assert.Equal(t, "janedoe", profile.Username)
	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, workflow.MatchDirectURL, profile.Method)
	assert.InDelta(t, 0.9, profile.Confidence, 0.001)
	assert.True(t, profile.Matched())
	assert.EqualValues(t, 1, scraper.fetchCalls.Load())
}

// Test that contributors without a profile hint are skipped entirely
func TestMatch_SkipsUnhinted(t *testing.T) {
	scraper := &stubScraper{}
	agent := NewAgent(scraper, profilecache.NewInMemoryCache(), time.Hour, testOptions())

	profiles, err := agent.Match(context.Background(), []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/janedoe"),
		{Username: "anon", Contributions: 5},
	})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
	assert.EqualValues(t, 1, scraper.fetchCalls.Load())
}

// Test that a repeat request within the TTL is served from the cache without
// touching the scraper
func TestMatch_CacheHitSkipsFetch(t *testing.T) {
	scraper := &stubScraper{}
	agent := NewAgent(scraper, profilecache.NewInMemoryCache(), time.Hour, testOptions())
	ctx := context.Background()

	contributors := []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/janedoe"),
	}

	_, err := agent.Match(ctx, contributors)
	require.NoError(t, err)
	require.EqualValues(t, 1, scraper.fetchCalls.Load())

	profiles, err := agent.Match(ctx, contributors)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Jane Doe", profiles[0].Name)
	assert.EqualValues(t, 1, scraper.fetchCalls.Load(), "cached profile must not hit the scraper again")
}

// Test that the cache is keyed on the normalized URL, so trailing slashes and
// case differences still hit
func TestMatch_CacheKeyNormalized(t *testing.T) {
	scraper := &stubScraper{}
	agent := NewAgent(scraper, profilecache.NewInMemoryCache(), time.Hour, testOptions())
	ctx := context.Background()

	_, err := agent.Match(ctx, []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/janedoe"),
	})
	require.NoError(t, err)

	_, err = agent.Match(ctx, []workflow.ContributorRecord{
		hintedContributor("janedoe", "HTTPS://linkedin.com/in/JaneDoe/"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, scraper.fetchCalls.Load())
}

// Test that the cached profile is rebound to the requesting contributor
func TestMatch_CacheRebindsUsername(t *testing.T) {
	scraper := &stubScraper{}
	agent := NewAgent(scraper, profilecache.NewInMemoryCache(), time.Hour, testOptions())
	ctx := context.Background()

	_, err := agent.Match(ctx, []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/janedoe"),
	})
	require.NoError(t, err)

	profiles, err := agent.Match(ctx, []workflow.ContributorRecord{
		hintedContributor("jdoe-alt", "https://linkedin.com/in/janedoe"),
	})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "jdoe-alt", profiles[0].Username)
}

// Test that a dead direct URL falls back to a name search with reduced
// confidence
func TestMatch_NameSearchFallback(t *testing.T) {
	scraper := &stubScraper{
		fetchErr: fetch.NewError(fetch.KindPermanent, "profile not found"),
	}
	agent := NewAgent(scraper, profilecache.NewInMemoryCache(), time.Hour, testOptions())

	profiles, err := agent.Match(context.Background(), []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/gone"),
	})
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	profile := profiles[0]
	assert.Equal(t, workflow.MatchNameSearch, profile.Method)
	assert.InDelta(t, 0.5, profile.Confidence, 0.001)
	assert.Equal(t, "https://linkedin.com/in/found-by-search", profile.ProfileURL)
	assert.EqualValues(t, 1, scraper.searchCalls.Load())
}

// Test that a permanent failure with no fallback fills the profile's error
// slot instead of failing the batch, and is not cached
func TestMatch_PermanentFailureRecorded(t *testing.T) {
	scraper := &stubScraper{
		fetchErr:  fetch.NewError(fetch.KindPermanent, "profile not found"),
		searchErr: fetch.NewError(fetch.KindPermanent, "no results"),
	}
	cache := profilecache.NewInMemoryCache()
	agent := NewAgent(scraper, cache, time.Hour, testOptions())
	ctx := context.Background()

	profiles, err := agent.Match(ctx, []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/gone"),
	})
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	profile := profiles[0]
	assert.Equal(t, "janedoe", profile.Username)
	assert.NotEmpty(t, profile.Error)
	assert.False(t, profile.Matched())

	// A failed match must not poison the cache
	_, err = cache.Get(ctx, profilecache.Key("linkedin", "https://linkedin.com/in/gone"))
	assert.ErrorIs(t, err, profilecache.ErrMiss)

	// The next attempt retries the scraper rather than serving the failure
	before := scraper.fetchCalls.Load()
	_, err = agent.Match(ctx, []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/gone"),
	})
	require.NoError(t, err)
	assert.Greater(t, scraper.fetchCalls.Load(), before)
}

// Test that one failed contributor does not abort the others
func TestMatch_FailureIsolation(t *testing.T) {
	bad := hintedContributor("ghost", "https://linkedin.com/in/ghost")
	bad.Name = ""

	selective := &selectiveScraper{inner: &stubScraper{}, failURL: "https://linkedin.com/in/ghost"}
	agent := NewAgent(selective, profilecache.NewInMemoryCache(), time.Hour, testOptions())

	profiles, err := agent.Match(context.Background(), []workflow.ContributorRecord{
		hintedContributor("janedoe", "https://linkedin.com/in/janedoe"),
		bad,
	})
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	matched := 0
	failed := 0
	for _, p := range profiles {
		if p.Matched() {
			matched++
		} else {
			failed++
			assert.Equal(t, "ghost", p.Username)
		}
	}
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, failed)
}

// selectiveScraper fails one URL and delegates the rest
type selectiveScraper struct {
	inner   Scraper
	failURL string
}

func (s *selectiveScraper) FetchProfile(ctx context.Context, url string) (*ProfileData, error) {
	if url == s.failURL {
		return nil, fetch.NewError(fetch.KindPermanent, "profile not found")
	}
	return s.inner.FetchProfile(ctx, url)
}

func (s *selectiveScraper) SearchProfile(ctx context.Context, name, companyHint string) (*ProfileData, error) {
	return s.inner.SearchProfile(ctx, name, companyHint)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://linkedin.com/in/janedoe", normalizeURL("  HTTPS://linkedin.com/in/JaneDoe/ "))
	assert.Equal(t, "https://linkedin.com/in/janedoe", normalizeURL("https://linkedin.com/in/janedoe"))
}
