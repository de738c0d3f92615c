package services

import (
	"fmt"
	"strings"

	"committutor-backend/internal/models"
)

// Few-shot exemplars. One literal example per task keeps the output
// shape stable across the free-tier models this service targets.
const quizExemplar = `{
  "questions": [
    {
      "id": "q1",
      "type": "multiple",
      "question": "What is the effect of adding the mutex around the cache map access?",
      "codeContext": "mu.Lock()\ndefer mu.Unlock()\ncache[key] = value",
      "options": [
        "It prevents concurrent map writes",
        "It makes the map iteration ordered",
        "It speeds up cache lookups",
        "It persists the cache to disk"
      ],
      "correctAnswer": 0,
      "explanation": "Maps are not safe for concurrent writes; the mutex serializes access."
    }
  ]
}`

const analysisExemplar = `{
  "summary": "Adds retry logic around the payment client with exponential backoff.",
  "quality": {"readability": 82, "performance": 74, "security": 68},
  "suggestions": [
    "Extract the backoff parameters into configuration",
    "Log the attempt number on each retry"
  ],
  "potentialBugs": [
    "The retry loop does not honor context cancellation"
  ]
}`

const topicsExemplar = `{
  "topics": [
    {
      "id": "topic_1",
      "title": "Database connection pooling",
      "description": "These commits tune pool sizing and connection lifetimes.",
      "keywords": ["pool", "timeout", "pgx"]
    }
  ]
}`

const sessionExemplar = `{
  "quiz": {
    "questions": [
      {
        "id": "q1",
        "type": "multiple",
        "question": "Why was the N+1 query replaced with a join?",
        "options": ["To reduce round trips", "To simplify the schema", "To avoid transactions", "To enable caching"],
        "correctAnswer": 0,
        "explanation": "One joined query replaces a query per row."
      }
    ]
  },
  "review": {
    "summary": "Query-efficiency work across the order listing endpoints.",
    "quality": {"readability": 78, "performance": 85, "security": 70},
    "suggestions": ["Add an index covering the join columns"],
    "potentialBugs": ["The join drops orders with no line items"]
  }
}`

const reviewDocExemplar = `{
  "title": "Goroutine lifecycle management",
  "summary": "You handled channel basics well but missed how contexts stop goroutines.",
  "sections": [
    {
      "title": "Context cancellation",
      "content": "A goroutine that selects on ctx.Done() exits when the parent cancels...",
      "key_points": ["Always pass context to long-running goroutines"],
      "examples": ["select { case <-ctx.Done(): return }"]
    }
  ],
  "related_concepts": ["sync.WaitGroup", "errgroup"],
  "further_reading": ["Go blog: pipelines and cancellation"]
}`

var difficultyGuides = map[string]string{
	"easy":   "Ask about what the change does at a surface level. A reader who skimmed the diff should get these right.",
	"medium": "Ask about why the change works and what would break without it. Requires reading the diff carefully.",
	"hard":   "Ask about edge cases, failure modes, and design trade-offs implied by the change.",
}

var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"es": "Spanish",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

func truncatePatch(patch string, limit int) string {
	cut, truncated := truncateChars(patch, limit)
	if !truncated {
		return patch
	}
	return cut + "\n... (truncated) ..."
}

// formatCommits renders commit details into the shared prompt block.
// maxFiles caps how many file diffs each commit contributes.
func formatCommits(commits []models.CommitDetail, maxFiles, maxPatchChars int) string {
	var sb strings.Builder
	for i, commit := range commits {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		sha := commit.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		fmt.Fprintf(&sb, "Commit %s by %s (%s)\n", sha, commit.Author, commit.Date)
		fmt.Fprintf(&sb, "Message: %s\n", strings.TrimSpace(commit.Message))
		fmt.Fprintf(&sb, "Stats: %d files changed, +%d -%d\n\n", commit.FilesChanged, commit.Additions, commit.Deletions)

		files := commit.Files
		if len(files) > maxFiles {
			files = files[:maxFiles]
		}
		for _, f := range files {
			fmt.Fprintf(&sb, "File: %s (%s, +%d -%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
			if f.Patch != "" {
				sb.WriteString("```diff\n")
				sb.WriteString(truncatePatch(f.Patch, maxPatchChars))
				sb.WriteString("\n```\n")
			}
		}
		if len(commit.Files) > maxFiles {
			fmt.Fprintf(&sb, "(%d more files omitted)\n", len(commit.Files)-maxFiles)
		}
	}
	return sb.String()
}

func writeLanguageLayer(sb *strings.Builder, lang string) {
	if lang == "" || lang == "en" {
		return
	}
	fmt.Fprintf(sb, "\nLanguage: Write every question, option, explanation and description in %s. Keep code identifiers and code snippets as-is.\n", languageName(lang))
}

func buildQuizPrompt(cfg Config, commits []models.CommitDetail, questionCount int, difficulty, selectedTopic string) string {
	var sb strings.Builder

	// Layer 1: Role
	sb.WriteString("You are a senior developer who writes quizzes that help engineers learn from their own commit history.\n\n")

	// Layer 2: Source material
	sb.WriteString("Commits:\n\n")
	sb.WriteString(formatCommits(commits, cfg.MaxFilesPerCommit, cfg.MaxPatchChars))
	sb.WriteString("\n\n")

	// Layer 3: Task
	guide, ok := difficultyGuides[difficulty]
	if !ok {
		guide = difficultyGuides["medium"]
	}
	fmt.Fprintf(&sb, "Generate exactly %d multiple-choice questions.\n", questionCount)
	fmt.Fprintf(&sb, "Difficulty (%s): %s\n\n", difficulty, guide)

	// Layer 4: Topic conditioning
	if selectedTopic != "" {
		fmt.Fprintf(&sb, "Focus topic: %s\n", selectedTopic)
		sb.WriteString("Build each question from general knowledge of this topic. The commits above only show the developer's context. Do NOT copy the literal diff into a question or its codeContext; write fresh, self-contained code samples about the topic instead.\n\n")
	}

	// Layer 5: Requirements
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Every question has exactly 4 options and one correct answer\n")
	sb.WriteString("- correctAnswer is the 0-based index into options\n")
	sb.WriteString("- Vary what the questions test: intent of the change, behavior of the code, pitfalls, idioms\n")
	sb.WriteString("- codeContext is optional; include it only when a snippet makes the question clearer\n")
	sb.WriteString("- explanation says why the correct answer is correct\n")
	writeLanguageLayer(&sb, cfg.OutputLanguage)

	// Layer 6: Output contract
	sb.WriteString("\nRespond with JSON only, no markdown fences, matching this shape:\n")
	sb.WriteString(quizExemplar)
	sb.WriteString("\n")

	return sb.String()
}

func buildAnalysisPrompt(cfg Config, commit models.CommitDetail, focusAreas []string) string {
	var sb strings.Builder

	sb.WriteString("You are a thorough code reviewer. Review the following commit.\n\n")
	// Reviews look at more of the commit than quiz generation does.
	sb.WriteString(formatCommits([]models.CommitDetail{commit}, 2*cfg.MaxFilesPerCommit, cfg.MaxPatchChars))
	sb.WriteString("\n\n")

	if lang := detectLanguage(commit); lang != "" {
		fmt.Fprintf(&sb, "Primary language of the change: %s\n", lang)
	}
	if len(focusAreas) > 0 {
		fmt.Fprintf(&sb, "Focus areas requested by the developer: %s\n", strings.Join(focusAreas, ", "))
	}

	sb.WriteString("\nAssess readability, performance and security on a 0-100 scale. Give concrete suggestions tied to lines in the diff, and list potential bugs you can actually argue for.\n")
	writeLanguageLayer(&sb, cfg.OutputLanguage)

	sb.WriteString("\nRespond with JSON only, matching this shape (all four fields are required):\n")
	sb.WriteString(analysisExemplar)
	sb.WriteString("\n")

	return sb.String()
}

func buildTopicsPrompt(cfg Config, commits []models.CommitDetail) string {
	var sb strings.Builder

	sb.WriteString("You are a mentor helping a developer decide what to study next based on their recent work.\n\n")
	sb.WriteString(formatCommits(commits, cfg.MaxFilesPerCommit, cfg.MaxPatchChars))
	sb.WriteString("\n\n")

	sb.WriteString("Extract 3 to 5 learning topics that these commits touch. Each topic needs a short title, a one-or-two sentence description grounded in the commits, and a few keywords.\n")
	writeLanguageLayer(&sb, cfg.OutputLanguage)

	sb.WriteString("\nRespond with JSON only, matching this shape:\n")
	sb.WriteString(topicsExemplar)
	sb.WriteString("\n")

	return sb.String()
}

func buildSessionPrompt(cfg Config, commits []models.CommitDetail, questionCount int, difficulty string) string {
	var sb strings.Builder

	sb.WriteString("You are a senior developer producing a combined learning session: a quiz and a code review for the same commits, in one response.\n\n")
	sb.WriteString(formatCommits(commits, cfg.MaxFilesPerCommit, cfg.MaxPatchChars))
	sb.WriteString("\n\n")

	guide, ok := difficultyGuides[difficulty]
	if !ok {
		guide = difficultyGuides["medium"]
	}
	fmt.Fprintf(&sb, "Part 1 (quiz): exactly %d multiple-choice questions, 4 options each, correctAnswer as 0-based index. Difficulty (%s): %s\n", questionCount, difficulty, guide)
	sb.WriteString("Part 2 (review): summary, 0-100 quality scores for readability/performance/security, suggestions, potential bugs.\n")
	writeLanguageLayer(&sb, cfg.OutputLanguage)

	sb.WriteString("\nRespond with a single JSON object, no markdown fences, with sibling \"quiz\" and \"review\" keys:\n")
	sb.WriteString(sessionExemplar)
	sb.WriteString("\n")

	return sb.String()
}

// answeredQuestion pairs a question with the user's submitted answer for
// the review-document prompt.
type answeredQuestion struct {
	Question   models.QuizQuestion
	UserAnswer any
}

func formatAnsweredQuestions(sb *strings.Builder, items []answeredQuestion) {
	for _, item := range items {
		fmt.Fprintf(sb, "- Q: %s\n", item.Question.Question)
		if idx, ok := answerIndex(item.Question.CorrectAnswer); ok && idx < len(item.Question.Options) {
			fmt.Fprintf(sb, "  Correct: %s\n", item.Question.Options[idx])
		} else {
			fmt.Fprintf(sb, "  Correct: %v\n", item.Question.CorrectAnswer)
		}
		fmt.Fprintf(sb, "  User answered: %v\n", item.UserAnswer)
		if item.Question.Explanation != "" {
			fmt.Fprintf(sb, "  Explanation: %s\n", item.Question.Explanation)
		}
	}
}

func buildReviewDocumentPrompt(cfg Config, quizTitle, selectedTopic string, correct, wrong []answeredQuestion, score float64) string {
	var sb strings.Builder

	sb.WriteString("You are a tutor writing a personal study document for a developer who just finished a quiz about their own commits.\n\n")
	fmt.Fprintf(&sb, "Quiz: %s\n", quizTitle)
	if selectedTopic != "" {
		fmt.Fprintf(&sb, "Topic: %s\n", selectedTopic)
	}
	fmt.Fprintf(&sb, "Score: %.0f%%\n\n", score)

	if len(wrong) > 0 {
		sb.WriteString("Questions answered wrong (prioritize these):\n")
		formatAnsweredQuestions(&sb, wrong)
		sb.WriteString("\n")
	}
	if len(correct) > 0 {
		sb.WriteString("Questions answered correctly (mention briefly to reinforce):\n")
		formatAnsweredQuestions(&sb, correct)
		sb.WriteString("\n")
	}

	sb.WriteString("Write a review document that re-teaches the concepts behind the wrong answers, with 2 to 4 sections. Be specific to the questions above, not generic.\n")
	writeLanguageLayer(&sb, cfg.OutputLanguage)

	sb.WriteString("\nRespond with JSON only, matching this shape (title, summary and sections are required):\n")
	sb.WriteString(reviewDocExemplar)
	sb.WriteString("\n")

	return sb.String()
}

var extLanguages = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".kt":    "Kotlin",
	".rb":    "Ruby",
	".rs":    "Rust",
	".c":     "C",
	".cpp":   "C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".sql":   "SQL",
}

// detectLanguage picks the most common language among changed files.
func detectLanguage(commit models.CommitDetail) string {
	counts := map[string]int{}
	for _, f := range commit.Files {
		if idx := strings.LastIndex(f.Filename, "."); idx >= 0 {
			if lang, ok := extLanguages[f.Filename[idx:]]; ok {
				counts[lang]++
			}
		}
	}
	best, bestCount := "", 0
	for lang, n := range counts {
		if n > bestCount {
			best, bestCount = lang, n
		}
	}
	return best
}
