// Package linkedin implements the profile-matching stage: it resolves
// professional-network profiles for hinted contributors through a TTL cache
// and a rate-limited fetch agent.
package linkedin

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/ethanbaker/recruiter/internal/stores/profilecache"
	"github.com/ethanbaker/recruiter/pkg/fetch"
	"github.com/ethanbaker/recruiter/pkg/workflow"
)

const cacheSource = "linkedin"

const (
	confidenceDirectURL  = 0.9
	confidenceNameSearch = 0.5
)

// matchKey identifies one profile-matching sub-task.
type matchKey struct {
	username   string
	name       string
	company    string
	profileURL string
}

// Agent matches contributors to professional-network profiles. It implements
// workflow.ProfileMatcher. The cache sits in front of the fetch agent: a hit
// bypasses the rate-limited fetch entirely.
type Agent struct {
	scraper  Scraper
	cache    profilecache.Cache
	cacheTTL time.Duration
	fetcher  *fetch.Agent[matchKey, workflow.MatchedProfile]
}

// NewAgent creates a profile-matching agent. opts carries the scraper rate
// budget and the batch concurrency limit.
func NewAgent(scraper Scraper, cache profilecache.Cache, cacheTTL time.Duration, opts fetch.Options) *Agent {
	a := &Agent{
		scraper:  scraper,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
	a.fetcher = fetch.NewAgent("linkedin", a.match, opts)
	return a
}

// Match resolves profiles for the given contributors. Cached profiles are
// served without touching the fetch agent; misses fan out through it,
// bounded by the concurrency limit. Per-contributor failures are recorded on
// their profile slot and never abort siblings.
func (a *Agent) Match(ctx context.Context, contributors []workflow.ContributorRecord) ([]workflow.MatchedProfile, error) {
	profiles := make([]workflow.MatchedProfile, 0, len(contributors))
	var misses []matchKey

	for _, c := range contributors {
		if !c.HasProfileHint() {
			continue
		}

		if cached, ok := a.cached(ctx, c); ok {
			profiles = append(profiles, cached)
			continue
		}

		misses = append(misses, matchKey{
			username:   c.Username,
			name:       c.Name,
			company:    companyHint(c),
			profileURL: c.ProfileURL,
		})
	}

	for result := range a.fetcher.FetchBatch(ctx, misses) {
		if result.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			profiles = append(profiles, workflow.MatchedProfile{
				Username:   result.Key.username,
				ProfileURL: result.Key.profileURL,
				Error:      result.Err.Error(),
			})
			continue
		}

		a.store(ctx, result.Key, result.Value)
		profiles = append(profiles, result.Value)
	}

	return profiles, nil
}

// match resolves one contributor's profile: direct URL first, name search as
// a fallback when the URL turns out to be dead and a name is available.
func (a *Agent) match(ctx context.Context, key matchKey) (workflow.MatchedProfile, error) {
	data, err := a.scraper.FetchProfile(ctx, key.profileURL)
	method := workflow.MatchDirectURL
	confidence := confidenceDirectURL

	if err != nil && fetch.IsPermanent(err) && key.name != "" {
		data, err = a.scraper.SearchProfile(ctx, key.name, key.company)
		method = workflow.MatchNameSearch
		confidence = confidenceNameSearch
	}
	if err != nil {
		return workflow.MatchedProfile{}, err
	}

	return workflow.MatchedProfile{
		Username:   key.username,
		ProfileURL: data.URL,
		Name:       data.Name,
		Position:   data.Position,
		Company:    data.Company,
		Location:   data.Location,
		Skills:     data.Skills,
		Method:     method,
		Confidence: confidence,
	}, nil
}

// cached checks the profile cache for the contributor's hint.
func (a *Agent) cached(ctx context.Context, c workflow.ContributorRecord) (workflow.MatchedProfile, bool) {
	data, err := a.cache.Get(ctx, a.cacheKey(c.ProfileURL))
	if err != nil {
		return workflow.MatchedProfile{}, false
	}

	var profile workflow.MatchedProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return workflow.MatchedProfile{}, false
	}

	// The cache is shared across sessions; rebind the contributor identity
	profile.Username = c.Username
	return profile, true
}

// store caches a successful match. Failures are never cached so the next
// occurrence retries instead of waiting out a bad TTL.
func (a *Agent) store(ctx context.Context, key matchKey, profile workflow.MatchedProfile) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := a.cache.Put(ctx, a.cacheKey(key.profileURL), data, a.cacheTTL); err != nil {
		log.Printf("[LINKEDIN]: Failed to cache profile %s: %v", key.profileURL, err)
	}
}

func (a *Agent) cacheKey(profileURL string) string {
	return profilecache.Key(cacheSource, normalizeURL(profileURL))
}

func normalizeURL(url string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(url)), "/")
}

func companyHint(c workflow.ContributorRecord) string {
	// No structured employer data comes out of the GitHub stage today; the
	// hint slot is kept for scrapers that can use it.
	return ""
}
