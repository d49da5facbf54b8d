package revalidate

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Revalidator asks the frontend to refresh its cached blog pages. Every
// failure is swallowed: a stale cache must never fail a pipeline run.
type Revalidator struct {
	siteURL    string
	secret     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Options configures the revalidator.
type Options struct {
	SiteURL    string
	Secret     string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// New constructs a Revalidator. An empty site URL yields a no-op instance.
func New(opts Options) *Revalidator {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Revalidator{
		siteURL:    strings.TrimRight(opts.SiteURL, "/"),
		secret:     opts.Secret,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// Run refreshes the blog index and, when a slug is given, the article page.
func (r *Revalidator) Run(ctx context.Context, slug string) {
	if r.siteURL == "" {
		return
	}

	r.revalidatePath(ctx, "/blog")
	if slug != "" {
		r.revalidatePath(ctx, "/blog/"+slug)
	}
}

func (r *Revalidator) revalidatePath(ctx context.Context, path string) {
	query := url.Values{}
	query.Set("path", path)
	if r.secret != "" {
		query.Set("secret", r.secret)
	}

	endpoint := r.siteURL + "/api/revalidate?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		r.logDebug(path, err.Error())
		return
	}

	response, err := r.httpClient.Do(request)
	if err != nil {
		r.logDebug(path, err.Error())
		return
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		r.logDebug(path, response.Status)
		return
	}

	if r.logger != nil {
		r.logger.WithField("path", path).Debug("revalidated frontend path")
	}
}

func (r *Revalidator) logDebug(path, reason string) {
	if r.logger == nil {
		return
	}
	r.logger.WithFields(logrus.Fields{"path": path, "reason": reason}).Debug("revalidation skipped")
}
