package models

type LearningTopic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

type TopicMetadata struct {
	TotalCommits   int    `json:"totalCommits"`
	ExtractedCount int    `json:"extractedCount"`
	ExtractedAt    string `json:"extractedAt"`
}

type TopicExtractionResult struct {
	Topics   []LearningTopic `json:"topics"`
	Metadata TopicMetadata   `json:"metadata"`
}

type ExtractTopicsRequest struct {
	CommitSHAs []string `json:"commitShas"`
}
