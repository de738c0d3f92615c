package services

// Config carries the generation knobs shared by the services. Zero
// values fall back to the defaults the prompts were tuned against.
type Config struct {
	QuizModel   string
	TopicModel  string
	ReviewModel string

	OutputLanguage        string
	MaxPatchChars         int
	MaxFilesPerCommit     int
	MaxOptionsPerQuestion int
}

func (c Config) withDefaults() Config {
	if c.MaxPatchChars <= 0 {
		c.MaxPatchChars = 1000
	}
	if c.MaxFilesPerCommit <= 0 {
		c.MaxFilesPerCommit = 5
	}
	if c.MaxOptionsPerQuestion <= 0 {
		c.MaxOptionsPerQuestion = 4
	}
	if c.OutputLanguage == "" {
		c.OutputLanguage = "ko"
	}
	return c
}
