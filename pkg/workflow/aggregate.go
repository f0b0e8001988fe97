package workflow

import "sort"

// Aggregate joins contributor records with their matched profiles into the
// final result. It is a pure function: deterministic for identical inputs,
// no external calls. Contributors without a successful match are included
// with an empty profile section. Output is ordered by contribution count
// descending, then username ascending.
func Aggregate(repository string, contributors []ContributorRecord, profiles []MatchedProfile) *AggregateResult {
	matched := make(map[string]MatchedProfile, len(profiles))
	for _, p := range profiles {
		if p.Matched() {
			matched[p.Username] = p
		}
	}

	merged := make([]MergedProfile, 0, len(contributors))
	withMatch := 0

	for _, c := range contributors {
		row := MergedProfile{
			Username:      c.Username,
			Name:          c.Name,
			Email:         c.Email,
			Contributions: c.Contributions,
			ProfileURL:    c.ProfileURL,
			Metrics:       c.Metrics,
		}

		if p, ok := matched[c.Username]; ok {
			row.Profile = &p
			withMatch++
		}

		merged = append(merged, row)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Contributions != merged[j].Contributions {
			return merged[i].Contributions > merged[j].Contributions
		}
		return merged[i].Username < merged[j].Username
	})

	return &AggregateResult{
		Repository:        repository,
		TotalProfiles:     len(merged),
		ProfilesWithMatch: withMatch,
		Profiles:          merged,
	}
}
