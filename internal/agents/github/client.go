package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ethanbaker/recruiter/pkg/fetch"
	"github.com/ethanbaker/recruiter/pkg/utils"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub REST API. All non-2xx responses come back as
// classified fetch errors so the agent's retry loop can handle them.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a GitHub API client from configuration
func NewClient(cfg *utils.Config) *Client {
	return &Client{
		baseURL: cfg.GetWithDefault("GITHUB_API_URL", defaultBaseURL),
		token:   cfg.Get("GITHUB_TOKEN"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type contributorSummary struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

type userDetail struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Blog  string `json:"blog"`
}

type commitItem struct {
	Commit struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type issueItem struct {
	CreatedAt time.Time `json:"created_at"`
}

type repoItem struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// ValidateRepository checks that a repository exists and is accessible
func (c *Client) ValidateRepository(ctx context.Context, repo string) error {
	var out map[string]any
	return c.get(ctx, "/repos/"+repo, nil, &out)
}

// ListContributors returns the repository's contributors, most active first,
// up to limit
func (c *Client) ListContributors(ctx context.Context, repo string, limit int) ([]contributorSummary, error) {
	var contributors []contributorSummary
	query := url.Values{"per_page": {fmt.Sprint(limit)}}

	if err := c.get(ctx, "/repos/"+repo+"/contributors", query, &contributors); err != nil {
		return nil, err
	}

	if len(contributors) > limit {
		contributors = contributors[:limit]
	}
	return contributors, nil
}

// GetUser returns public profile details for a username
func (c *Client) GetUser(ctx context.Context, username string) (*userDetail, error) {
	var user userDetail
	if err := c.get(ctx, "/users/"+username, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ActivityCounts returns total and trailing-90-day commit, PR, and issue
// counts for a user in a repository
func (c *Client) ActivityCounts(ctx context.Context, repo, username string) (commits, prs, issues, recentCommits, recentPRs, recentIssues int, err error) {
	recentCutoff := time.Now().AddDate(0, 0, -90)

	var commitItems []commitItem
	if err = c.get(ctx, "/repos/"+repo+"/commits", url.Values{
		"author":   {username},
		"per_page": {"100"},
	}, &commitItems); err != nil {
		return
	}

	var prItems []issueItem
	if err = c.get(ctx, "/repos/"+repo+"/pulls", url.Values{
		"creator":  {username},
		"state":    {"all"},
		"per_page": {"100"},
	}, &prItems); err != nil {
		return
	}

	var issueItems []issueItem
	if err = c.get(ctx, "/repos/"+repo+"/issues", url.Values{
		"creator":  {username},
		"state":    {"all"},
		"per_page": {"100"},
	}, &issueItems); err != nil {
		return
	}

	commits = len(commitItems)
	prs = len(prItems)
	issues = len(issueItems)

	for _, c := range commitItems {
		if c.Commit.Author.Date.After(recentCutoff) {
			recentCommits++
		}
	}
	for _, pr := range prItems {
		if pr.CreatedAt.After(recentCutoff) {
			recentPRs++
		}
	}
	for _, issue := range issueItems {
		if issue.CreatedAt.After(recentCutoff) {
			recentIssues++
		}
	}

	return
}

// UserLanguages aggregates language byte counts across a user's most
// recently updated repositories
func (c *Client) UserLanguages(ctx context.Context, username string) (map[string]int64, error) {
	var repos []repoItem
	if err := c.get(ctx, "/users/"+username+"/repos", url.Values{
		"per_page": {"100"},
		"sort":     {"updated"},
	}, &repos); err != nil {
		return nil, err
	}

	// Limit to the most recent repos to bound the request count
	if len(repos) > 10 {
		repos = repos[:10]
	}

	languages := make(map[string]int64)
	for _, repo := range repos {
		var repoLanguages map[string]int64
		if err := c.get(ctx, "/repos/"+repo.FullName+"/languages", nil, &repoLanguages); err != nil {
			continue
		}
		for lang, bytes := range repoLanguages {
			languages[lang] += bytes
		}
	}

	return languages, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fetch.WrapError(err, fetch.KindTransient)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fetch.StatusError(resp.StatusCode, resp.Header, fmt.Sprintf("github api returned %d for %s", resp.StatusCode, path))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fetch.WrapError(fmt.Errorf("failed to decode response for %s: %w", path, err), fetch.KindTransient)
	}

	return nil
}
