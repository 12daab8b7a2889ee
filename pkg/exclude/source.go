package exclude

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// DefaultBlacklistURL is the AppImage community list of libraries that are
// expected on every target system.
const DefaultBlacklistURL = "https://raw.githubusercontent.com/AppImage/pkg2appimage/master/excludelist"

// Source provides blacklist entries.
type Source interface {
	Fetch(ctx context.Context) ([]string, error)
}

// ParseBlacklist reads one entry per line. Blank lines and lines starting
// with '#' are skipped, trailing '#' comments and whitespace are stripped.
func ParseBlacklist(r io.Reader) ([]string, error) {
	var entries []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line != "" {
			entries = append(entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// HTTPSource downloads the blacklist. Any failure is fatal: there is no
// retry and no cached fallback.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns a source for url, or the community list when url
// is empty.
func NewHTTPSource(url string) *HTTPSource {
	if url == "" {
		url = DefaultBlacklistURL
	}
	return &HTTPSource{URL: url, Client: http.DefaultClient}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]string, error) {
	logger := logging.GetLogger("exclude")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNetwork, "invalid blacklist URL %s", s.URL)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	done := logging.LogOperationStart(logger, "fetch blacklist")
	resp, err := client.Do(req)
	done()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNetwork, "cannot fetch blacklist from %s", s.URL).
			WithDetail("url", s.URL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf(errors.ErrNetwork, "blacklist fetch from %s returned %s", s.URL, resp.Status).
			WithDetail("url", s.URL).
			WithDetail("status", resp.StatusCode)
	}

	entries, err := ParseBlacklist(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNetwork, "cannot read blacklist from %s", s.URL)
	}

	logger.Debug().Str("url", s.URL).Int("entries", len(entries)).Msg("Fetched blacklist")
	return entries, nil
}

// FileSource reads the blacklist from a local copy.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot open blacklist file %s", s.Path)
	}
	defer func() {
		_ = f.Close()
	}()

	entries, err := ParseBlacklist(f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot read blacklist file %s", s.Path)
	}
	return entries, nil
}

// StaticSource returns fixed entries. It is used when the list is known
// ahead of time, e.g. in offline builds.
type StaticSource []string

func (s StaticSource) Fetch(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
