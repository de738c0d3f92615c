package services

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"committutor-backend/internal/models"
)

const (
	maxCodeContextChars = 800
	minOptions          = 2
	defaultQualityScore = 75
)

// Known aliases the models use for question types.
var questionTypeAliases = map[string]string{
	"multiple":        models.QuestionTypeMultiple,
	"multiple_choice": models.QuestionTypeMultiple,
	"objective":       models.QuestionTypeMultiple,
	"mcq":             models.QuestionTypeMultiple,
	"short":           models.QuestionTypeShort,
	"short_answer":    models.QuestionTypeShort,
	"subjective":      models.QuestionTypeShort,
	"descriptive":     models.QuestionTypeShort,
	"open_ended":      models.QuestionTypeShort,
	"open-ended":      models.QuestionTypeShort,
}

// Explanation markers scanned as the last-resort answer source. Kept
// deliberately short; this is a best-effort fallback, not a contract.
var answerMarkers = []string{"정답:", "Answer:", "answer:"}

// rawQuestion is the loose shape questions arrive in.
type rawQuestion struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Question       string `json:"question"`
	CodeContext    string `json:"codeContext"`
	Options        []any  `json:"options"`
	CorrectAnswer  any    `json:"correctAnswer"`
	Answer         any    `json:"answer"`
	ShortAnswer    any    `json:"shortAnswer"`
	ExpectedAnswer any    `json:"expectedAnswer"`
	Explanation    string `json:"explanation"`
}

// truncateChars cuts s after max characters, never mid-rune, so
// multi-byte text stays valid UTF-8.
func truncateChars(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// anyToText renders a decoded JSON value as trimmed text. Whole-number
// floats print without a decimal point so "1" and 1 compare equal.
func anyToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}

// normalizeQuestions validates each raw question independently.
// Malformed items are dropped with a log line; survivors always satisfy
// the QuizQuestion invariants.
func normalizeQuestions(raw []json.RawMessage, maxOptions int) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, 0, len(raw))
	for i, item := range raw {
		q, ok := normalizeQuestion(item, i, maxOptions)
		if !ok {
			log.Printf("[Normalize] dropping question %d: failed validation", i+1)
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

func normalizeQuestion(data json.RawMessage, index, maxOptions int) (models.QuizQuestion, bool) {
	var raw rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.QuizQuestion{}, false
	}

	question := strings.TrimSpace(raw.Question)
	if question == "" {
		return models.QuizQuestion{}, false
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = "q" + strconv.Itoa(index+1)
	}

	qType, ok := resolveQuestionType(raw.Type, raw.Options)
	if !ok {
		return models.QuizQuestion{}, false
	}

	codeContext := strings.TrimSpace(raw.CodeContext)
	if cut, truncated := truncateChars(codeContext, maxCodeContextChars); truncated {
		codeContext = cut + "..."
	}

	out := models.QuizQuestion{
		ID:          id,
		Type:        qType,
		Question:    question,
		CodeContext: codeContext,
		Explanation: strings.TrimSpace(raw.Explanation),
	}

	if qType == models.QuestionTypeMultiple {
		options := cleanOptions(raw.Options, maxOptions)
		if len(options) < minOptions {
			return models.QuizQuestion{}, false
		}
		idx, ok := resolveMultipleAnswer(raw.CorrectAnswer, options, out.Explanation)
		if !ok {
			return models.QuizQuestion{}, false
		}
		out.Options = options
		out.CorrectAnswer = idx
		return out, true
	}

	answer := resolveShortAnswer(raw)
	if answer == "" {
		return models.QuizQuestion{}, false
	}
	out.CorrectAnswer = answer
	return out, true
}

func resolveQuestionType(rawType string, options []any) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(rawType))
	if t == "" {
		if len(options) > 0 {
			return models.QuestionTypeMultiple, true
		}
		return models.QuestionTypeShort, true
	}
	mapped, ok := questionTypeAliases[t]
	return mapped, ok
}

func cleanOptions(raw []any, maxOptions int) []string {
	options := make([]string, 0, len(raw))
	for _, opt := range raw {
		if text := anyToText(opt); text != "" {
			options = append(options, text)
		}
		if len(options) == maxOptions {
			break
		}
	}
	return options
}

// resolveMultipleAnswer turns whatever the model put in correctAnswer
// into a valid option index, or reports failure.
func resolveMultipleAnswer(correct any, options []string, explanation string) (int, bool) {
	idx := -1

	switch v := correct.(type) {
	case float64:
		idx = int(v)
	case bool:
		if v {
			idx = 1
		} else {
			idx = 0
		}
	case string:
		idx = resolveAnswerText(v, options, explanation)
	case nil:
		idx = resolveAnswerText(answerFromMarker(explanation), options, explanation)
	default:
		return 0, false
	}

	if idx < 0 || idx >= len(options) {
		return 0, false
	}
	return idx, true
}

func resolveAnswerText(text string, options []string, explanation string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return -1
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n
	}

	for i, opt := range options {
		if strings.EqualFold(text, opt) {
			return i
		}
	}

	// "option 3" style references are one-based.
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "option") {
		digits := strings.TrimFunc(lower[len("option"):], func(r rune) bool {
			return r < '0' || r > '9'
		})
		if n, err := strconv.Atoi(digits); err == nil && n >= 1 {
			return n - 1
		}
	}

	if marker := answerFromMarker(explanation); marker != "" && !strings.EqualFold(marker, text) {
		return resolveAnswerText(marker, options, "")
	}
	return -1
}

// answerFromMarker pulls the token after a "정답:" style marker out of
// the explanation text.
func answerFromMarker(explanation string) string {
	for _, marker := range answerMarkers {
		idx := strings.Index(explanation, marker)
		if idx < 0 {
			continue
		}
		rest := explanation[idx+len(marker):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		rest = strings.TrimSpace(rest)
		rest = strings.TrimRight(rest, ".!)")
		if rest != "" {
			return rest
		}
	}
	return ""
}

// resolveShortAnswer walks the alias chain the models use for
// short-answer keys, then falls back to the first explanation line.
func resolveShortAnswer(raw rawQuestion) string {
	for _, candidate := range []any{raw.CorrectAnswer, raw.Answer, raw.ShortAnswer, raw.ExpectedAnswer} {
		if list, ok := candidate.([]any); ok && len(list) == 1 {
			candidate = list[0]
		}
		if text := anyToText(candidate); text != "" {
			return text
		}
	}
	if line, _, _ := strings.Cut(strings.TrimSpace(raw.Explanation), "\n"); line != "" {
		return strings.TrimSpace(line)
	}
	return ""
}

// clampScore forces a quality score into [0, 100]; anything that is not
// a number becomes the neutral default.
func clampScore(v any) int {
	var score int
	switch t := v.(type) {
	case float64:
		score = int(t)
	case bool:
		if t {
			score = 1
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return defaultQualityScore
		}
		score = n
	default:
		return defaultQualityScore
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeQuality(raw json.RawMessage) models.CodeQuality {
	var scores struct {
		Readability any `json:"readability"`
		Performance any `json:"performance"`
		Security    any `json:"security"`
	}
	// A missing or non-object quality block defaults every score.
	_ = json.Unmarshal(raw, &scores)
	return models.CodeQuality{
		Readability: clampScore(scores.Readability),
		Performance: clampScore(scores.Performance),
		Security:    clampScore(scores.Security),
	}
}

// normalizeStringList coerces a decoded JSON array into trimmed
// non-empty strings, dropping everything else.
func normalizeStringList(raw json.RawMessage) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := anyToText(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func normalizeTopics(raw []json.RawMessage) []models.LearningTopic {
	topics := make([]models.LearningTopic, 0, len(raw))
	for i, item := range raw {
		var t struct {
			ID          string          `json:"id"`
			Title       string          `json:"title"`
			Description string          `json:"description"`
			Keywords    json.RawMessage `json:"keywords"`
		}
		if err := json.Unmarshal(item, &t); err != nil {
			log.Printf("[Normalize] dropping topic %d: %v", i+1, err)
			continue
		}
		title := strings.TrimSpace(t.Title)
		description := strings.TrimSpace(t.Description)
		if title == "" || description == "" {
			log.Printf("[Normalize] dropping topic %d: missing title or description", i+1)
			continue
		}
		id := strings.TrimSpace(t.ID)
		if id == "" {
			id = "topic_" + strconv.Itoa(i+1)
		}
		topics = append(topics, models.LearningTopic{
			ID:          id,
			Title:       title,
			Description: description,
			Keywords:    normalizeStringList(t.Keywords),
		})
	}
	return topics
}

func normalizeSections(raw []json.RawMessage) []models.ReviewSection {
	sections := make([]models.ReviewSection, 0, len(raw))
	for i, item := range raw {
		var s struct {
			Title     string          `json:"title"`
			Content   string          `json:"content"`
			KeyPoints json.RawMessage `json:"key_points"`
			Examples  json.RawMessage `json:"examples"`
		}
		if err := json.Unmarshal(item, &s); err != nil {
			log.Printf("[Normalize] dropping section %d: %v", i+1, err)
			continue
		}
		title := strings.TrimSpace(s.Title)
		content := strings.TrimSpace(s.Content)
		if title == "" || content == "" {
			log.Printf("[Normalize] dropping section %d: missing title or content", i+1)
			continue
		}
		sections = append(sections, models.ReviewSection{
			Title:     title,
			Content:   content,
			KeyPoints: normalizeStringList(s.KeyPoints),
			Examples:  normalizeStringList(s.Examples),
		})
	}
	return sections
}

// answerIndex reads a normalized multiple-choice answer back as an int.
// Stored questions round-trip through JSON, so the value may arrive as
// float64.
func answerIndex(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}
