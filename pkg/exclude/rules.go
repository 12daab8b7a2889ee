package exclude

import (
	"regexp"
	"strings"
)

// Rule decides whether a path is excluded.
type Rule interface {
	Match(path string) bool
	String() string
}

// RegexRule excludes paths matching a regular expression anywhere.
type RegexRule struct {
	re *regexp.Regexp
}

// NewRegexRule compiles pattern into a rule. It panics on invalid input.
func NewRegexRule(pattern string) RegexRule {
	return RegexRule{re: regexp.MustCompile(pattern)}
}

func (r RegexRule) Match(path string) bool { return r.re.MatchString(path) }
func (r RegexRule) String() string         { return "regex:" + r.re.String() }

// SuffixRule excludes paths whose last components equal Suffix, i.e. paths
// ending in "/"+Suffix.
type SuffixRule struct {
	Suffix string
}

func (r SuffixRule) Match(path string) bool { return strings.HasSuffix(path, "/"+r.Suffix) }
func (r SuffixRule) String() string         { return "blacklist:" + r.Suffix }

var builtinPatterns = []string{
	`^/home/[^/]+/\.`,
	`\.so\.cache$`,
	`\.ids$`,
	`^/(etc|dev|dri|proc|run|sys|var)/`,
	`/(drirc)`,
	`/share/(fonts|icons|locale|kde-settings|mime)/?`,
	`/share/X11/(fonts|locale)/?`,
	`/lib(64)?/locale/`,
	`/(lib|share)/fontconfig/`,
	`/nsswitch\.conf$`,
}

// BuiltinRules returns the fixed rules for user dotfiles, caches, virtual
// filesystems and host-specific data.
func BuiltinRules() []Rule {
	rules := make([]Rule, 0, len(builtinPatterns))
	for _, p := range builtinPatterns {
		rules = append(rules, NewRegexRule(p))
	}
	return rules
}

// SuffixRules turns blacklist entries into rules.
func SuffixRules(entries []string) []Rule {
	rules := make([]Rule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, SuffixRule{Suffix: e})
	}
	return rules
}
