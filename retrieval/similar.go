package retrieval

import (
	"context"
	"sort"

	"github.com/hairizuanbinnoorazman/testcrafter/flow"
	"github.com/hairizuanbinnoorazman/testcrafter/testcase"
)

// DefaultSimilarLimit caps how many stored cases Similar returns.
const DefaultSimilarLimit = 5

// Keywords derives the feature keywords of a flow: "navigation" when any step
// carries a URL, plus each click or input step type. The result is sorted and
// free of duplicates.
func Keywords(f flow.Flow) []string {
	set := make(map[string]struct{})
	for _, step := range f {
		if step.HasURL() {
			set[string(flow.ActionNavigation)] = struct{}{}
		}
		if step.Type == flow.ActionClick || step.Type == flow.ActionInput {
			set[string(step.Type)] = struct{}{}
		}
	}

	keywords := make([]string, 0, len(set))
	for k := range set {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

// CaseFinder is the part of the test case store the retriever needs.
type CaseFinder interface {
	FindByFeatures(ctx context.Context, features []string, limit int) ([]*testcase.TestCase, error)
}

// CaseRetriever looks up stored test cases whose feature matches a flow's keywords.
type CaseRetriever struct {
	finder CaseFinder
	limit  int
}

// NewCaseRetriever creates a retriever returning at most limit cases. A
// non-positive limit uses DefaultSimilarLimit.
func NewCaseRetriever(finder CaseFinder, limit int) *CaseRetriever {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	return &CaseRetriever{finder: finder, limit: limit}
}

// Similar returns the flow's keywords and the matching stored cases. A flow with
// no keywords matches nothing without querying the store.
func (r *CaseRetriever) Similar(ctx context.Context, f flow.Flow) ([]string, []*testcase.TestCase, error) {
	keywords := Keywords(f)
	if len(keywords) == 0 {
		return keywords, []*testcase.TestCase{}, nil
	}

	cases, err := r.finder.FindByFeatures(ctx, keywords, r.limit)
	if err != nil {
		return keywords, nil, err
	}
	return keywords, cases, nil
}
