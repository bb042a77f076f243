// Package catalog holds the static health-issue reference table. It is
// populated once by the importer and read-only at query time.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrIssueNotFound indicates the requested health-issue ID does not exist.
var ErrIssueNotFound = errors.New("catalog: health issue not found")

// HealthIssue is one reference record: a named condition, the symptoms
// associated with it, and the advice read back to the caller. Immutable
// once loaded.
type HealthIssue struct {
	ID       string
	Name     string
	Symptoms []string
	Advice   []string
}

// AdviceText joins the ordered advice entries into one spoken recommendation.
func (h *HealthIssue) AdviceText() string {
	return strings.Join(h.Advice, " ")
}

// HasSymptom reports whether the normalized symptom is listed on this issue.
func (h *HealthIssue) HasSymptom(symptom string) bool {
	for _, s := range h.Symptoms {
		if s == symptom {
			return true
		}
	}
	return false
}

// Catalog is an in-memory, read-only table of health issues keyed by ID.
type Catalog struct {
	issues map[string]*HealthIssue
	order  []string
}

// New builds a catalog from the provided records. Duplicate IDs are rejected.
func New(issues []*HealthIssue) (*Catalog, error) {
	c := &Catalog{issues: make(map[string]*HealthIssue, len(issues))}
	for _, issue := range issues {
		if issue.ID == "" {
			return nil, fmt.Errorf("catalog: issue %q has empty ID", issue.Name)
		}
		if _, exists := c.issues[issue.ID]; exists {
			return nil, fmt.Errorf("catalog: duplicate issue ID %s", issue.ID)
		}
		c.issues[issue.ID] = issue
		c.order = append(c.order, issue.ID)
	}
	return c, nil
}

// Get returns the issue for the given ID.
func (c *Catalog) Get(id string) (*HealthIssue, error) {
	issue, ok := c.issues[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, id)
	}
	return issue, nil
}

// All returns every issue in load order.
func (c *Catalog) All() []*HealthIssue {
	out := make([]*HealthIssue, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.issues[id])
	}
	return out
}

// Len returns the number of issues in the catalog.
func (c *Catalog) Len() int {
	return len(c.issues)
}

// Symptoms returns the distinct normalized symptoms across the whole
// catalog, sorted for stable importer reports.
func (c *Catalog) Symptoms() []string {
	seen := make(map[string]struct{})
	for _, issue := range c.issues {
		for _, s := range issue.Symptoms {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
