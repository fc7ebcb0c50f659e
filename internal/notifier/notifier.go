// Package notifier files issue reports for rejected registrations.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/JonMunkholm/spregistry/internal/core"
)

//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks

// IssueCreator is the part of the GitHub issues API the notifier uses.
type IssueCreator interface {
	Create(ctx context.Context, owner string, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

// Config configures the GitHub notifier.
type Config struct {
	Token   string
	Owner   string
	Repo    string
	BaseURL string // GitHub Enterprise API URL, empty for github.com
	Labels  []string
	Timeout time.Duration
}

// GitHub opens one issue per rejected submission.
type GitHub struct {
	issues  IssueCreator
	owner   string
	repo    string
	labels  []string
	timeout time.Duration
}

// NewGitHub builds a notifier talking to the GitHub API.
func NewGitHub(cfg Config) (*GitHub, error) {
	if cfg.Token == "" {
		return nil, errors.New("github token required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("github repository required")
	}

	client := github.NewClient(&http.Client{Timeout: cfg.Timeout}).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
	}

	return NewGitHubWithClient(client.Issues, cfg), nil
}

// NewGitHubWithClient builds a notifier over an existing issues client.
func NewGitHubWithClient(issues IssueCreator, cfg Config) *GitHub {
	return &GitHub{
		issues:  issues,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		labels:  cfg.Labels,
		timeout: cfg.Timeout,
	}
}

// Enabled always reports true.
func (g *GitHub) Enabled() bool { return true }

// Notify opens an issue for f and returns its URL.
func (g *GitHub) Notify(ctx context.Context, f core.Failure) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	report := Render(f)
	req := &github.IssueRequest{
		Title: github.String(report.Title),
		Body:  github.String(report.Body),
	}
	if len(g.labels) > 0 {
		labels := append([]string(nil), g.labels...)
		req.Labels = &labels
	}

	issue, _, err := g.issues.Create(ctx, g.owner, g.repo, req)
	if err != nil {
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			return "", fmt.Errorf("create issue for %s: rate limit exceeded until %s: %w",
				f.Submission.ResponseID, rateErr.Rate.Reset.Time.Format(time.RFC3339), err)
		}
		return "", fmt.Errorf("create issue for %s: %w", f.Submission.ResponseID, err)
	}
	return issue.GetHTMLURL(), nil
}

// Disabled drops every notification.
type Disabled struct{}

// Enabled reports false.
func (Disabled) Enabled() bool { return false }

// Notify does nothing.
func (Disabled) Notify(context.Context, core.Failure) (string, error) { return "", nil }

var (
	_ core.Notifier = (*GitHub)(nil)
	_ core.Notifier = Disabled{}
)
