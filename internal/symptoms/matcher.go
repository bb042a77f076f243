package symptoms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brightline-health/intake-ai-platform/internal/catalog"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// FallbackRecommendation is spoken when no candidate issue is found or the
// index is unreachable.
const FallbackRecommendation = "I couldn't match those symptoms to a known condition. Please consult a healthcare professional."

// RestatePrompt asks the caller to describe their symptoms again.
const RestatePrompt = "I didn't catch any symptoms. Could you describe how you're feeling?"

// ErrTimeout indicates the caller-supplied deadline elapsed before the index
// answered.
var ErrTimeout = errors.New("symptoms: query timed out")

// Candidate is one ranked health issue. MatchCount is the number of distinct
// reported symptoms that hit the issue; AvgDistance is the mean of the best
// per-symptom distances.
type Candidate struct {
	Issue       *catalog.HealthIssue
	MatchCount  int
	AvgDistance float64
}

// MatchOutcome is the tagged result of a match call: Resolved, Ambiguous,
// NoMatch, or InvalidInput.
type MatchOutcome interface {
	matchOutcome()
}

// Resolved carries the single best issue and its recommendation.
type Resolved struct {
	Candidate      Candidate
	Recommendation string
}

// Ambiguous carries the ranked candidates and refinement symptoms the caller
// has not reported yet.
type Ambiguous struct {
	Candidates        []Candidate
	SuggestedSymptoms []string
}

// NoMatch carries the generic fallback recommendation.
type NoMatch struct {
	Recommendation string
}

// InvalidInput carries a prompt asking the caller to restate symptoms.
type InvalidInput struct {
	Prompt string
}

func (Resolved) matchOutcome()     {}
func (Ambiguous) matchOutcome()    {}
func (NoMatch) matchOutcome()      {}
func (InvalidInput) matchOutcome() {}

// MatcherOptions tune the ranking pipeline. Zero values fall back to the
// reference behavior.
type MatcherOptions struct {
	// Neighbors is K, the per-symptom nearest-neighbor fan-out.
	Neighbors int
	// SuggestionCap bounds the refinement symptoms offered on ambiguity.
	SuggestionCap int
	// RetryAttempts bounds index query retries on dependency failure.
	RetryAttempts int
	// RetryBaseDelay is the backoff unit between retries.
	RetryBaseDelay time.Duration
}

func (o MatcherOptions) withDefaults() MatcherOptions {
	if o.Neighbors <= 0 {
		o.Neighbors = 100
	}
	if o.SuggestionCap <= 0 {
		o.SuggestionCap = 3
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 200 * time.Millisecond
	}
	return o
}

// Matcher ranks candidate issues for a set of reported symptoms. It holds no
// session state: Match is a pure function of its arguments and the index, so
// one Matcher serves all call sessions concurrently.
type Matcher struct {
	index  Index
	cat    *catalog.Catalog
	opts   MatcherOptions
	logger *logging.Logger
}

// NewMatcher builds a matcher over the given index and catalog.
func NewMatcher(index Index, cat *catalog.Catalog, opts MatcherOptions, logger *logging.Logger) *Matcher {
	if index == nil {
		panic("symptoms: index cannot be nil")
	}
	if cat == nil {
		panic("symptoms: catalog cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Matcher{index: index, cat: cat, opts: opts.withDefaults(), logger: logger}
}

// Match queries the index once per reported symptom, keeps the best hit per
// issue within each symptom's result set, accumulates match counts and
// distance sums per issue, and ranks by (-match_count, avg_distance).
//
// The error return is reserved for dependency failure (index unreachable,
// deadline elapsed); every domain result is a MatchOutcome value.
func (m *Matcher) Match(ctx context.Context, reported []string, topN int) (MatchOutcome, error) {
	symptoms := normalizeSymptoms(reported)
	if len(symptoms) == 0 {
		return InvalidInput{Prompt: RestatePrompt}, nil
	}
	if topN <= 0 {
		topN = 3
	}

	type accum struct {
		count int
		sum   float64
	}
	matches := make(map[string]*accum)

	for _, symptom := range symptoms {
		hits, err := m.queryWithRetry(ctx, symptom)
		if err != nil {
			return nil, err
		}

		// One reported symptom contributes at most once per issue, no
		// matter how many of the issue's entries it matched.
		seen := make(map[string]struct{})
		for _, hit := range hits {
			if _, dup := seen[hit.IssueID]; dup {
				continue
			}
			seen[hit.IssueID] = struct{}{}

			acc, ok := matches[hit.IssueID]
			if !ok {
				acc = &accum{}
				matches[hit.IssueID] = acc
			}
			acc.count++
			acc.sum += hit.Distance
		}
	}

	candidates := make([]Candidate, 0, len(matches))
	for issueID, acc := range matches {
		issue, err := m.cat.Get(issueID)
		if err != nil {
			m.logger.Warn("index entry references unknown issue", "issue_id", issueID)
			continue
		}
		candidates = append(candidates, Candidate{
			Issue:       issue,
			MatchCount:  acc.count,
			AvgDistance: acc.sum / float64(acc.count),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MatchCount != candidates[j].MatchCount {
			return candidates[i].MatchCount > candidates[j].MatchCount
		}
		if candidates[i].AvgDistance != candidates[j].AvgDistance {
			return candidates[i].AvgDistance < candidates[j].AvgDistance
		}
		return candidates[i].Issue.ID < candidates[j].Issue.ID
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	switch {
	case len(candidates) == 0:
		return NoMatch{Recommendation: FallbackRecommendation}, nil
	case len(candidates) == 1 || topN == 1:
		best := candidates[0]
		return Resolved{Candidate: best, Recommendation: best.Issue.AdviceText()}, nil
	default:
		return Ambiguous{
			Candidates:        candidates,
			SuggestedSymptoms: m.suggestSymptoms(candidates, symptoms),
		}, nil
	}
}

func (m *Matcher) queryWithRetry(ctx context.Context, symptom string) ([]Hit, error) {
	var lastErr error
	for attempt := 0; attempt < m.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := m.opts.RetryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			case <-time.After(delay):
			}
		}

		hits, err := m.index.Query(ctx, symptom, m.opts.Neighbors)
		if err == nil {
			return hits, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		lastErr = err
		m.logger.Warn("index query failed", "symptom", symptom, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, lastErr)
}

// suggestSymptoms collects candidate symptoms the caller has not reported
// yet, walking candidates in rank order, capped to the configured limit.
func (m *Matcher) suggestSymptoms(candidates []Candidate, reported []string) []string {
	have := make(map[string]struct{}, len(reported))
	for _, s := range reported {
		have[s] = struct{}{}
	}

	var suggestions []string
	seen := make(map[string]struct{})
	for _, cand := range candidates {
		for _, s := range cand.Issue.Symptoms {
			if _, reported := have[s]; reported {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			suggestions = append(suggestions, s)
			if len(suggestions) >= m.opts.SuggestionCap {
				return suggestions
			}
		}
	}
	return suggestions
}

func normalizeSymptoms(reported []string) []string {
	seen := make(map[string]struct{}, len(reported))
	out := make([]string, 0, len(reported))
	for _, s := range reported {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
