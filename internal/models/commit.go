package models

import (
	"fmt"
	"strings"
)

// Repository is a repo the signed-in user can pull commits from.
type Repository struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Private       bool    `json:"private"`
	Description   *string `json:"description"`
	DefaultBranch string  `json:"default_branch"`
	Language      *string `json:"language"`
	UpdatedAt     string  `json:"updated_at"`
}

type Branch struct {
	Name      string `json:"name"`
	CommitSHA string `json:"commit_sha"`
	Protected bool   `json:"protected"`
}

// CommitSummary is the list-view shape; diffs are fetched separately.
type CommitSummary struct {
	SHA       string `json:"sha"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	Date      string `json:"date"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// FileDiff is one changed file inside a commit.
type FileDiff struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// CommitDetail is the unit of source material for every generation task.
type CommitDetail struct {
	SHA          string     `json:"sha"`
	Message      string     `json:"message"`
	Author       string     `json:"author"`
	Date         string     `json:"date"`
	FilesChanged int        `json:"files_changed"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	Files        []FileDiff `json:"files"`
}

// CommitRef identifies a commit as "owner/repo:sha" on the wire.
type CommitRef struct {
	Owner string
	Repo  string
	SHA   string
}

func ParseCommitRef(s string) (CommitRef, error) {
	repoPart, sha, ok := strings.Cut(s, ":")
	if !ok || sha == "" {
		return CommitRef{}, fmt.Errorf("commit ref %q must look like owner/repo:sha", s)
	}
	owner, repo, ok := strings.Cut(repoPart, "/")
	if !ok || owner == "" || repo == "" {
		return CommitRef{}, fmt.Errorf("commit ref %q must look like owner/repo:sha", s)
	}
	return CommitRef{Owner: owner, Repo: repo, SHA: sha}, nil
}

func (c CommitRef) String() string {
	return c.Owner + "/" + c.Repo + ":" + c.SHA
}
