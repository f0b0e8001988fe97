// Package github implements the contributor-collection stage: it lists a
// repository's contributors and fans out per-contributor detail fetches
// through a rate-limited fetch agent.
package github

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethanbaker/recruiter/pkg/fetch"
	"github.com/ethanbaker/recruiter/pkg/workflow"
)

// detailKey identifies one contributor enrichment sub-task.
type detailKey struct {
	repository    string
	username      string
	contributions int
}

// Agent collects contributor activity for a repository. It implements
// workflow.ContributorSource.
type Agent struct {
	client         *Client
	fetcher        *fetch.Agent[detailKey, workflow.ContributorRecord]
	includeMetrics bool
}

// NewAgent creates a contributor-collection agent. opts carries the GitHub
// rate budget and the batch concurrency limit.
func NewAgent(client *Client, opts fetch.Options, includeMetrics bool) *Agent {
	a := &Agent{
		client:         client,
		includeMetrics: includeMetrics,
	}
	a.fetcher = fetch.NewAgent("github", a.enrich, opts)
	return a
}

// Contributors lists the repository's contributors and enriches each one
// concurrently. Per-contributor enrichment failures are recorded on the
// record rather than failing the collection; only repository-level failures
// return an error.
func (a *Agent) Contributors(ctx context.Context, repository string, limit int) ([]workflow.ContributorRecord, error) {
	if err := a.client.ValidateRepository(ctx, repository); err != nil {
		return nil, fmt.Errorf("repository %s not found or not accessible: %w", repository, err)
	}

	summaries, err := a.client.ListContributors(ctx, repository, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors for %s: %w", repository, err)
	}

	keys := make([]detailKey, 0, len(summaries))
	for _, s := range summaries {
		keys = append(keys, detailKey{
			repository:    repository,
			username:      s.Login,
			contributions: s.Contributions,
		})
	}

	records := make([]workflow.ContributorRecord, 0, len(keys))
	for result := range a.fetcher.FetchBatch(ctx, keys) {
		if result.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Keep the contributor with what the listing gave us
			records = append(records, workflow.ContributorRecord{
				Username:      result.Key.username,
				Contributions: result.Key.contributions,
				MetricsError:  result.Err.Error(),
			})
			continue
		}
		records = append(records, result.Value)
	}

	// Batch results arrive in completion order; sort for reproducibility
	sort.Slice(records, func(i, j int) bool {
		if records[i].Contributions != records[j].Contributions {
			return records[i].Contributions > records[j].Contributions
		}
		return records[i].Username < records[j].Username
	})

	return records, nil
}

// enrich fetches one contributor's user details and activity metrics.
func (a *Agent) enrich(ctx context.Context, key detailKey) (workflow.ContributorRecord, error) {
	user, err := a.client.GetUser(ctx, key.username)
	if err != nil {
		return workflow.ContributorRecord{}, err
	}

	record := workflow.ContributorRecord{
		Username:      user.Login,
		Name:          user.Name,
		Email:         user.Email,
		Contributions: key.contributions,
		ProfileURL:    profileURLFromBlog(user.Blog),
	}

	if a.includeMetrics {
		if err := a.attachMetrics(ctx, &record, key.repository); err != nil {
			record.MetricsError = err.Error()
		}
	}

	return record, nil
}

func (a *Agent) attachMetrics(ctx context.Context, record *workflow.ContributorRecord, repository string) error {
	commits, prs, issues, recentCommits, recentPRs, recentIssues, err := a.client.ActivityCounts(ctx, repository, record.Username)
	if err != nil {
		return err
	}

	languages, err := a.client.UserLanguages(ctx, record.Username)
	if err != nil {
		languages = nil
	}

	record.Metrics = &workflow.ActivityMetrics{
		TotalCommits:  commits,
		TotalPRs:      prs,
		TotalIssues:   issues,
		RecentCommits: recentCommits,
		RecentPRs:     recentPRs,
		RecentIssues:  recentIssues,
		Languages:     languages,
	}
	return nil
}

// profileURLFromBlog treats a user's blog field as a profile hint only when
// it points at the professional network
func profileURLFromBlog(blog string) string {
	if strings.Contains(strings.ToLower(blog), "linkedin.com/") {
		return blog
	}
	return ""
}
