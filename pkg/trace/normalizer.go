package trace

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
	"github.com/arthur-debert/appdirbuilder/pkg/utils"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the path resolution cache.
const DefaultCacheSize = 4096

var (
	// openCallRe matches file-open syscalls with an optional "[pid N]" or
	// bare pid column in front, as written by strace -f and -ff.
	openCallRe = regexp.MustCompile(`^\s*(?:\[pid\s+\d+\]\s*|\d+\s+)?(?:open|openat|openat2|creat)\(`)
	// quotedRe captures the first double-quoted token, honouring escapes.
	quotedRe = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// Result is the normalized content of a trace log. Both lists are sorted
// and free of duplicates.
type Result struct {
	// Existing holds files that are already inside the AppDir.
	Existing []string
	// Candidates holds files outside the AppDir.
	Candidates []string
}

type resolution struct {
	path string
	ok   bool
}

// Normalizer reduces a raw trace log to canonical regular files, split by
// whether they already live under the AppDir.
type Normalizer struct {
	appDir string
	cache  *lru.Cache[string, resolution]
}

// NewNormalizer returns a normalizer for the AppDir at appDir. The AppDir
// is compared in canonical form, so it may be given through a symlink.
func NewNormalizer(appDir string) (*Normalizer, error) {
	cache, err := lru.New[string, resolution](DefaultCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to create path cache")
	}
	return &Normalizer{
		appDir: utils.CanonicalOrAbs(appDir),
		cache:  cache,
	}, nil
}

// Normalize reads a trace log. Malformed lines, relative paths and paths
// that do not resolve to a regular file are skipped; only a failure to
// read r is returned as an error.
func (n *Normalizer) Normalize(r io.Reader) (Result, error) {
	logger := logging.GetLogger("trace")

	existing := make(map[string]struct{})
	candidates := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	// Large buffer for long argument vectors
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lines, opened := 0, 0
	for scanner.Scan() {
		lines++
		raw, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		opened++

		path, ok := n.resolve(raw)
		if !ok {
			continue
		}

		if utils.IsWithin(path, n.appDir) {
			existing[path] = struct{}{}
		} else {
			candidates[path] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrFileSystem, "failed to read trace log")
	}

	result := Result{
		Existing:   sortedKeys(existing),
		Candidates: sortedKeys(candidates),
	}
	logger.Info().
		Int("lines", lines).
		Int("open_calls", opened).
		Int("existing", len(result.Existing)).
		Int("candidates", len(result.Candidates)).
		Msg("Trace normalized")

	return result, nil
}

// ParseLine extracts the path argument of a file-open syscall line.
// The second return is false for any other line, for lines without a
// quoted path and for relative paths.
func ParseLine(line string) (string, bool) {
	if !openCallRe.MatchString(line) {
		return "", false
	}

	m := quotedRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	path := m[1]
	// strace escapes quotes and non-printable bytes C-style
	if unquoted, err := strconv.Unquote(`"` + path + `"`); err == nil {
		path = unquoted
	}

	if path == "" || !filepath.IsAbs(path) {
		return "", false
	}
	return path, true
}

// resolve canonicalizes path and reports whether it is a regular file.
func (n *Normalizer) resolve(path string) (string, bool) {
	if r, ok := n.cache.Get(path); ok {
		return r.path, r.ok
	}

	r := resolution{}
	if canonical, err := filepath.EvalSymlinks(path); err == nil {
		if info, err := os.Stat(canonical); err == nil && info.Mode().IsRegular() {
			r = resolution{path: filepath.Clean(canonical), ok: true}
		}
	}

	n.cache.Add(path, r)
	return r.path, r.ok
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
