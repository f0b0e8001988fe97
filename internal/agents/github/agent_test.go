package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethanbaker/recruiter/pkg/fetch"
	"github.com/ethanbaker/recruiter/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves a fake GitHub API for acme/widgets with two
// contributors: janedoe (a professional-network blog link) and anon (none)
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("GET /repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"full_name": "acme/widgets"})
	})
	mux.HandleFunc("GET /repos/acme/widgets/contributors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"login": "janedoe", "contributions": 42},
			{"login": "anon", "contributions": 7},
		})
	})
	mux.HandleFunc("GET /users/janedoe", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"login": "janedoe",
			"name":  "Jane Doe",
			"email": "jane@example.com",
			"blog":  "https://linkedin.com/in/janedoe",
		})
	})
	mux.HandleFunc("GET /users/anon", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"login": "anon",
			"blog":  "https://example.com/blog",
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/commits", func(w http.ResponseWriter, r *http.Request) {
		recent := time.Now().AddDate(0, 0, -5).Format(time.RFC3339)
		old := time.Now().AddDate(-1, 0, 0).Format(time.RFC3339)
		writeJSON(w, []map[string]any{
			{"commit": map[string]any{"author": map[string]any{"date": recent}}},
			{"commit": map[string]any{"author": map[string]any{"date": old}}},
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"created_at": time.Now().AddDate(0, 0, -10).Format(time.RFC3339)},
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{})
	})
	mux.HandleFunc("GET /users/{user}/repos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"name": "widgets", "full_name": "acme/widgets"},
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/languages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int64{"Go": 12000, "Shell": 300})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(baseURL string) *Client {
	return NewClient(utils.NewConfig(map[string]string{
		"GITHUB_API_URL": baseURL,
	}))
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

// Test collecting contributors with metrics from a healthy repository
func TestContributors_FullCollection(t *testing.T) {
	server := newTestServer(t)
	agent := NewAgent(newTestClient(server.URL), testOptions(), true)

	records, err := agent.Contributors(context.Background(), "acme/widgets", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by contributions descending
	jane := records[0]
	assert.Equal(t, "janedoe", jane.Username)
	assert.Equal(t, "Jane Doe", jane.Name)
	assert.Equal(t, 42, jane.Contributions)
	assert.Equal(t, "https://linkedin.com/in/janedoe", jane.ProfileURL)
	assert.True(t, jane.HasProfileHint())
	require.NotNil(t, jane.Metrics)
	assert.Equal(t, 2, jane.Metrics.TotalCommits)
	assert.Equal(t, 1, jane.Metrics.RecentCommits)
	assert.Equal(t, 1, jane.Metrics.TotalPRs)
	assert.EqualValues(t, 12000, jane.Metrics.Languages["Go"])

	anon := records[1]
	assert.Equal(t, "anon", anon.Username)
	assert.Empty(t, anon.ProfileURL, "non-network blog links are not profile hints")
	assert.False(t, anon.HasProfileHint())
}

// Test that metrics collection can be switched off
func TestContributors_MetricsDisabled(t *testing.T) {
	server := newTestServer(t)
	agent := NewAgent(newTestClient(server.URL), testOptions(), false)

	records, err := agent.Contributors(context.Background(), "acme/widgets", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, record := range records {
		assert.Nil(t, record.Metrics)
		assert.Empty(t, record.MetricsError)
	}
}

// Test that a missing repository fails the collection outright
func TestContributors_UnknownRepository(t *testing.T) {
	server := newTestServer(t)
	agent := NewAgent(newTestClient(server.URL), testOptions(), true)

	_, err := agent.Contributors(context.Background(), "acme/missing", 10)
	require.Error(t, err)
	assert.True(t, fetch.IsPermanent(err))
}

// Test that a failed user lookup degrades to a minimal record instead of
// failing the batch
func TestContributors_EnrichmentFailureDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"full_name":"acme/widgets"}`))
	})
	mux.HandleFunc("GET /repos/acme/widgets/contributors", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"login":"deleted-user","contributions":3}]`))
	})
	mux.HandleFunc("GET /users/deleted-user", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	agent := NewAgent(newTestClient(server.URL), testOptions(), true)

	records, err := agent.Contributors(context.Background(), "acme/widgets", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "deleted-user", record.Username)
	assert.Equal(t, 3, record.Contributions)
	assert.NotEmpty(t, record.MetricsError)
}

// Test that the contributor list is truncated to the requested limit
func TestListContributors_Limit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/contributors", func(w http.ResponseWriter, r *http.Request) {
		// Ignore per_page and return more than asked for
		w.Write([]byte(`[
			{"login":"a","contributions":5},
			{"login":"b","contributions":4},
			{"login":"c","contributions":3}
		]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	contributors, err := client.ListContributors(context.Background(), "acme/widgets", 2)
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, "a", contributors[0].Login)
	assert.Equal(t, "b", contributors[1].Login)
}

// Test that API responses map onto the error taxonomy
func TestClient_ErrorClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /repos/acme/throttled", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	mux.HandleFunc("GET /repos/acme/flaky", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	ctx := context.Background()

	err := client.ValidateRepository(ctx, "acme/gone")
	assert.True(t, fetch.IsPermanent(err))

	err = client.ValidateRepository(ctx, "acme/throttled")
	assert.True(t, fetch.IsRateLimit(err))
	assert.Equal(t, time.Second, fetch.RetryAfter(err))

	err = client.ValidateRepository(ctx, "acme/flaky")
	assert.True(t, fetch.IsTransient(err))
}

func TestProfileURLFromBlog(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/in/janedoe", profileURLFromBlog("https://www.linkedin.com/in/janedoe"))
	assert.Equal(t, "", profileURLFromBlog("https://example.com/blog"))
	assert.Equal(t, "", profileURLFromBlog(""))
}
