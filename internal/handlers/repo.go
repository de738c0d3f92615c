package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RepoHandler proxies the commit-browsing endpoints to the GitHub API
// with the caller's own token.
type RepoHandler struct{}

func NewRepoHandler() *RepoHandler {
	return &RepoHandler{}
}

func (h *RepoHandler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	client, ok := githubClient(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "No GitHub token in session", r))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	repos, err := client.ListRepositories(r.Context(), page)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"repositories": repos})
}

func (h *RepoHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	client, ok := githubClient(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "No GitHub token in session", r))
		return
	}

	branches, err := client.ListBranches(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"branches": branches})
}

func (h *RepoHandler) ListCommits(w http.ResponseWriter, r *http.Request) {
	client, ok := githubClient(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "No GitHub token in session", r))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	commits, err := client.ListCommits(r.Context(),
		chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), r.URL.Query().Get("branch"), page, perPage)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"commits": commits})
}

func (h *RepoHandler) GetCommit(w http.ResponseWriter, r *http.Request) {
	client, ok := githubClient(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "No GitHub token in session", r))
		return
	}

	detail, err := client.GetCommitDetail(r.Context(),
		chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), chi.URLParam(r, "sha"))
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
