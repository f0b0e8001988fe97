package workflow

import (
	"time"

	"github.com/google/uuid"
)

// ContributorRecord holds one contributor's repository activity plus the
// hints used to match them to a professional-network profile. Produced by
// the GitHub stage, consumed by the profile stage and the aggregator.
type ContributorRecord struct {
	Username      string           `json:"username"`
	Name          string           `json:"name,omitempty"`
	Email         string           `json:"email,omitempty"`
	Contributions int              `json:"contributions"`
	ProfileURL    string           `json:"profile_url,omitempty"`
	Metrics       *ActivityMetrics `json:"activity_metrics,omitempty"`
	MetricsError  string           `json:"activity_metrics_error,omitempty"`
}

// HasProfileHint reports whether the contributor carries a usable
// professional-network profile URL. Only URL-hinted contributors generate
// profile-stage sub-tasks; the display name serves as a search fallback
// within that sub-task, not as a hint on its own.
func (c ContributorRecord) HasProfileHint() bool {
	return c.ProfileURL != ""
}

// ActivityMetrics summarizes a contributor's activity in the analyzed
// repository. Recent counts cover the trailing 90 days.
type ActivityMetrics struct {
	TotalCommits  int              `json:"total_commits"`
	TotalPRs      int              `json:"total_prs"`
	TotalIssues   int              `json:"total_issues"`
	RecentCommits int              `json:"recent_commits"`
	RecentPRs     int              `json:"recent_prs"`
	RecentIssues  int              `json:"recent_issues"`
	Languages     map[string]int64 `json:"languages,omitempty"`
}

// MatchMethod records how a profile was located.
type MatchMethod string

const (
	MatchDirectURL  MatchMethod = "direct_url"
	MatchNameSearch MatchMethod = "name_search"
)

// MatchedProfile is one professional-network profile associated with a
// contributor. A failed match keeps its slot with Error set so the
// aggregator can report the contributor with an empty profile section.
type MatchedProfile struct {
	Username   string      `json:"username"`
	ProfileURL string      `json:"profile_url,omitempty"`
	Name       string      `json:"name,omitempty"`
	Position   string      `json:"position,omitempty"`
	Company    string      `json:"company,omitempty"`
	Location   string      `json:"location,omitempty"`
	Skills     []string    `json:"skills,omitempty"`
	Method     MatchMethod `json:"method,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Matched reports whether the profile fetch actually produced data.
func (m MatchedProfile) Matched() bool {
	return m.Error == "" && m.Name != ""
}

// MergedProfile is one row of the final aggregate: the contributor's
// repository activity joined with their matched profile, if any.
type MergedProfile struct {
	Username      string           `json:"username"`
	Name          string           `json:"name,omitempty"`
	Email         string           `json:"email,omitempty"`
	Contributions int              `json:"contributions"`
	ProfileURL    string           `json:"profile_url,omitempty"`
	Metrics       *ActivityMetrics `json:"activity_metrics,omitempty"`
	Profile       *MatchedProfile  `json:"profile,omitempty"`
}

// AggregateResult is the final merged dataset returned to the caller.
type AggregateResult struct {
	Repository        string          `json:"repository"`
	TotalProfiles     int             `json:"total_profiles"`
	ProfilesWithMatch int             `json:"profiles_with_match"`
	Profiles          []MergedProfile `json:"profiles"`
}

// StageError describes which stage failed and why. Timeout marks sessions
// forced to terminal by the session deadline.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Timeout bool   `json:"timeout,omitempty"`
}

// Payload is the stage-specific accumulated data carried by a state record.
// Each stage appends a new snapshot with its fields filled in; earlier
// fields are carried forward, never mutated in place.
type Payload struct {
	Task         string              `json:"task_description"`
	Limit        int                 `json:"limit"`
	Repository   string              `json:"repository,omitempty"`
	Contributors []ContributorRecord `json:"contributors,omitempty"`
	Profiles     []MatchedProfile    `json:"profiles,omitempty"`
	Result       *AggregateResult    `json:"result,omitempty"`
	Error        *StageError         `json:"error,omitempty"`
}

// StateRecord is an immutable snapshot of session state at one sequence
// number. The highest sequence for a session is its authoritative state.
type StateRecord struct {
	SessionID  uuid.UUID `json:"session_id"`
	Sequence   int64     `json:"sequence"`
	Stage      Stage     `json:"stage"`
	Payload    Payload   `json:"payload"`
	WriteToken uuid.UUID `json:"write_token"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
