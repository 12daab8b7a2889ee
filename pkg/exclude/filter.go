package exclude

import (
	"context"

	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// Exclusion records a path and the first rule that excluded it.
type Exclusion struct {
	Path string
	Rule Rule
}

// Filter applies a set of rules. A path is excluded when any rule matches;
// rule order only affects which rule is reported.
type Filter struct {
	rules []Rule
}

// NewFilter returns a filter over rules.
func NewFilter(rules ...Rule) *Filter {
	return &Filter{rules: append([]Rule(nil), rules...)}
}

// NewDefaultFilter combines the builtin rules with the entries of src.
func NewDefaultFilter(ctx context.Context, src Source) (*Filter, error) {
	entries, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return NewFilter(append(BuiltinRules(), SuffixRules(entries)...)...), nil
}

// Rules returns a copy of the filter's rules.
func (f *Filter) Rules() []Rule {
	return append([]Rule(nil), f.rules...)
}

// Match returns the first matching rule, or nil.
func (f *Filter) Match(path string) Rule {
	for _, r := range f.rules {
		if r.Match(path) {
			return r
		}
	}
	return nil
}

// Apply splits paths into those kept, in input order, and those excluded.
func (f *Filter) Apply(paths []string) ([]string, []Exclusion) {
	logger := logging.GetLogger("exclude")

	kept := make([]string, 0, len(paths))
	var excluded []Exclusion
	for _, p := range paths {
		if r := f.Match(p); r != nil {
			logger.Debug().Str("path", p).Str("rule", r.String()).Msg("Excluded")
			excluded = append(excluded, Exclusion{Path: p, Rule: r})
			continue
		}
		kept = append(kept, p)
	}

	logger.Info().Int("kept", len(kept)).Int("excluded", len(excluded)).Msg("Exclusion filter applied")
	return kept, excluded
}
