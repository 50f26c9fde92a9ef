package update

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/mod/module"
	modsemver "golang.org/x/mod/semver"

	"github.com/soda-framework/installer/internal/logger"
	"github.com/soda-framework/installer/internal/semver"
)

// Index answers "what is the newest published release of name satisfying constraint".
type Index interface {
	MostRecentSatisfying(ctx context.Context, name string, constraint semver.Constraint) (semver.Version, bool, error)
}

// DefaultProxy is the public Go module proxy.
const DefaultProxy = "https://proxy.golang.org"

// ProxyIndex lists module versions through the Go module proxy protocol.
type ProxyIndex struct {
	BaseURL string
	Client  *http.Client
}

// MostRecentSatisfying fetches <proxy>/<module>/@v/list and returns the
// highest listed version accepted by constraint.
func (p *ProxyIndex) MostRecentSatisfying(ctx context.Context, name string, constraint semver.Constraint) (semver.Version, bool, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return semver.Version{}, false, fmt.Errorf("invalid module path %q: %w", name, err)
	}

	base := p.BaseURL
	if base == "" {
		base = DefaultProxy
	}
	url := strings.TrimRight(base, "/") + "/" + escaped + "/@v/list"
	logger.Debug("[DEBUG] Querying module proxy: %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return semver.Version{}, false, err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return semver.Version{}, false, fmt.Errorf("HTTP GET error listing versions of %s: %w", name, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return semver.Version{}, false, fmt.Errorf("version listing for %s failed: HTTP status %d", name, resp.StatusCode)
	}

	var candidates []semver.Version
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !modsemver.IsValid(line) {
			continue
		}
		v, err := semver.ParseVersion(line)
		if err != nil {
			continue
		}
		candidates = append(candidates, v)
	}
	if err := scanner.Err(); err != nil {
		return semver.Version{}, false, fmt.Errorf("read version listing for %s: %w", name, err)
	}
	logger.Debug("[DEBUG] Module proxy lists %d versions of %s\n", len(candidates), name)

	best, ok := semver.MaxSatisfying(constraint, candidates)
	return best, ok, nil
}
