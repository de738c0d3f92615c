package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"committutor-backend/internal/models"
)

const (
	apiTimeout       = 10 * time.Second
	detailFetchLimit = 5
	commitDateLayout = "2006-01-02 15:04"
)

// NotFoundError marks a missing repo, branch, or commit.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found on GitHub", e.Resource)
}

// UpstreamError wraps any other GitHub API failure.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github api error (status %d): %v", e.StatusCode, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Client wraps the GitHub API with one user's OAuth token.
type Client struct {
	gh *gh.Client
}

func NewClient(ctx context.Context, accessToken string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return &Client{gh: gh.NewClient(oauth2.NewClient(ctx, ts))}
}

func wrapAPIError(resource string, resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if status == http.StatusNotFound {
		return &NotFoundError{Resource: resource}
	}
	return &UpstreamError{StatusCode: status, Err: err}
}

// AuthenticatedUser describes the token owner, with the primary email
// resolved when the profile email is private.
type AuthenticatedUser struct {
	GitHubID  int64
	Username  string
	Email     *string
	AvatarURL *string
}

func (c *Client) AuthenticatedUser(ctx context.Context) (*AuthenticatedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	user, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return nil, wrapAPIError("user", resp, err)
	}

	out := &AuthenticatedUser{
		GitHubID:  user.GetID(),
		Username:  user.GetLogin(),
		AvatarURL: user.AvatarURL,
		Email:     user.Email,
	}
	if out.Email == nil {
		// Profile email hidden; fall back to the primary verified one.
		emails, _, err := c.gh.Users.ListEmails(ctx, nil)
		if err == nil {
			for _, e := range emails {
				if e.GetPrimary() {
					out.Email = e.Email
					break
				}
			}
		}
	}
	return out, nil
}

func (c *Client) ListRepositories(ctx context.Context, page int) ([]models.Repository, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	repos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{Page: page, PerPage: 50},
	})
	if err != nil {
		return nil, wrapAPIError("repositories", resp, err)
	}

	out := make([]models.Repository, 0, len(repos))
	for _, r := range repos {
		repo := models.Repository{
			ID:            r.GetID(),
			Name:          r.GetName(),
			FullName:      r.GetFullName(),
			Private:       r.GetPrivate(),
			Description:   r.Description,
			DefaultBranch: r.GetDefaultBranch(),
			Language:      r.Language,
		}
		if r.UpdatedAt != nil {
			repo.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
		}
		out = append(out, repo)
	}
	return out, nil
}

func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]models.Branch, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	branches, resp, err := c.gh.Repositories.ListBranches(ctx, owner, repo, &gh.BranchListOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, wrapAPIError(owner+"/"+repo, resp, err)
	}

	out := make([]models.Branch, 0, len(branches))
	for _, b := range branches {
		out = append(out, models.Branch{
			Name:      b.GetName(),
			CommitSHA: b.GetCommit().GetSHA(),
			Protected: b.GetProtected(),
		})
	}
	return out, nil
}

func (c *Client) ListCommits(ctx context.Context, owner, repo, branch string, page, perPage int) ([]models.CommitSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 30
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, &gh.CommitsListOptions{
		SHA:         branch,
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	})
	if err != nil {
		return nil, wrapAPIError(owner+"/"+repo, resp, err)
	}

	out := make([]models.CommitSummary, 0, len(commits))
	for _, c := range commits {
		summary := models.CommitSummary{
			SHA:       c.GetSHA(),
			Message:   c.GetCommit().GetMessage(),
			Author:    c.GetCommit().GetAuthor().GetName(),
			AvatarURL: c.GetAuthor().GetAvatarURL(),
		}
		if date := c.GetCommit().GetAuthor().GetDate(); !date.IsZero() {
			summary.Date = date.Format(commitDateLayout)
		}
		out = append(out, summary)
	}
	return out, nil
}

func (c *Client) GetCommitDetail(ctx context.Context, owner, repo, sha string) (*models.CommitDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	commit, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, wrapAPIError(owner+"/"+repo+":"+sha, resp, err)
	}

	detail := &models.CommitDetail{
		SHA:          commit.GetSHA(),
		Message:      commit.GetCommit().GetMessage(),
		Author:       commit.GetCommit().GetAuthor().GetName(),
		FilesChanged: len(commit.Files),
		Additions:    commit.GetStats().GetAdditions(),
		Deletions:    commit.GetStats().GetDeletions(),
	}
	if date := commit.GetCommit().GetAuthor().GetDate(); !date.IsZero() {
		detail.Date = date.Format(commitDateLayout)
	}
	for _, f := range commit.Files {
		detail.Files = append(detail.Files, models.FileDiff{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Patch:     f.GetPatch(),
		})
	}
	return detail, nil
}

// FetchCommitDetails resolves every ref concurrently, preserving input
// order. Any single failure fails the whole batch; generation never
// runs on partial source material.
func (c *Client) FetchCommitDetails(ctx context.Context, refs []models.CommitRef) ([]models.CommitDetail, error) {
	details := make([]models.CommitDetail, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFetchLimit)
	for i, ref := range refs {
		g.Go(func() error {
			detail, err := c.GetCommitDetail(ctx, ref.Owner, ref.Repo, ref.SHA)
			if err != nil {
				return err
			}
			details[i] = *detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}
