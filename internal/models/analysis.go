package models

// CodeQuality scores are always clamped to [0, 100].
type CodeQuality struct {
	Readability int `json:"readability"`
	Performance int `json:"performance"`
	Security    int `json:"security"`
}

type AIAnalysisResult struct {
	Summary       string      `json:"summary"`
	Quality       CodeQuality `json:"quality"`
	Suggestions   []string    `json:"suggestions"`
	PotentialBugs []string    `json:"potentialBugs"`
}

// AnalyzeCommitRequest asks for a code-quality review of one commit.
type AnalyzeCommitRequest struct {
	CommitSHA  string   `json:"commitSha"`
	FocusAreas []string `json:"focusAreas"`
}
