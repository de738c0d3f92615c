package services

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"committutor-backend/internal/models"
)

func rawQuestions(t *testing.T, jsonText string) []json.RawMessage {
	t.Helper()
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &items); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return items
}

func TestNormalizeQuestionTypeAliases(t *testing.T) {
	tests := []struct {
		name     string
		rawType  string
		options  string
		wantType string
		wantKeep bool
	}{
		{"mcq alias", "MCQ", `["a", "b", "c"]`, models.QuestionTypeMultiple, true},
		{"objective alias", "objective", `["a", "b"]`, models.QuestionTypeMultiple, true},
		{"open_ended alias", "open_ended", `[]`, models.QuestionTypeShort, true},
		{"descriptive alias", "descriptive", `[]`, models.QuestionTypeShort, true},
		{"missing type with options", "", `["a", "b"]`, models.QuestionTypeMultiple, true},
		{"missing type without options", "", `[]`, models.QuestionTypeShort, true},
		{"unknown type", "essay", `["a", "b"]`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"type": "` + tt.rawType + `", "question": "Q?", "options": ` + tt.options + `, "correctAnswer": 0, "answer": "because"}`
			q, ok := normalizeQuestion(json.RawMessage(data), 0, 4)
			if ok != tt.wantKeep {
				t.Fatalf("keep = %v, want %v", ok, tt.wantKeep)
			}
			if ok && q.Type != tt.wantType {
				t.Errorf("type = %q, want %q", q.Type, tt.wantType)
			}
		})
	}
}

func TestNormalizeQuestionAnswerResolution(t *testing.T) {
	tests := []struct {
		name      string
		correct   string
		wantIndex int
		wantKeep  bool
	}{
		{"int index", `1`, 1, true},
		{"bool true", `true`, 1, true},
		{"bool false", `false`, 0, true},
		{"digit string", `"2"`, 2, true},
		{"option text match", `"B"`, 1, true},
		{"option text case insensitive", `"b"`, 1, true},
		{"option N reference", `"option 3"`, 2, true},
		{"no match", `"E"`, 0, false},
		{"out of range index", `7`, 0, false},
		{"negative index", `-1`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"question": "Q?", "type": "multiple", "options": ["A", "B", "C", "D"], "correctAnswer": ` + tt.correct + `}`
			q, ok := normalizeQuestion(json.RawMessage(data), 0, 4)
			if ok != tt.wantKeep {
				t.Fatalf("keep = %v, want %v", ok, tt.wantKeep)
			}
			if ok && q.CorrectAnswer != tt.wantIndex {
				t.Errorf("correctAnswer = %v, want %d", q.CorrectAnswer, tt.wantIndex)
			}
		})
	}
}

func TestNormalizeQuestionAnswerFromExplanationMarker(t *testing.T) {
	data := `{"question": "Q?", "type": "multiple", "options": ["Alpha", "Beta"], "explanation": "Some reasoning.\n정답: Beta"}`
	q, ok := normalizeQuestion(json.RawMessage(data), 0, 4)
	if !ok {
		t.Fatal("question should survive via the explanation marker")
	}
	if q.CorrectAnswer != 1 {
		t.Errorf("correctAnswer = %v, want 1", q.CorrectAnswer)
	}
}

func TestNormalizeQuestionOptionCleanup(t *testing.T) {
	data := `{"question": "Q?", "options": ["  a  ", "", "b", 3, "c", "d", "e"], "correctAnswer": 0}`
	q, ok := normalizeQuestion(json.RawMessage(data), 0, 4)
	if !ok {
		t.Fatal("question should survive")
	}
	want := []string{"a", "b", "3", "c"}
	if len(q.Options) != len(want) {
		t.Fatalf("options = %v, want %v", q.Options, want)
	}
	for i := range want {
		if q.Options[i] != want[i] {
			t.Errorf("options[%d] = %q, want %q", i, q.Options[i], want[i])
		}
	}
}

func TestNormalizeQuestionTooFewOptions(t *testing.T) {
	data := `{"question": "Q?", "type": "multiple", "options": ["only one"], "correctAnswer": 0}`
	if _, ok := normalizeQuestion(json.RawMessage(data), 0, 4); ok {
		t.Error("a multiple question with one option must be dropped")
	}
}

func TestNormalizeQuestionDefaultsAndTruncation(t *testing.T) {
	longContext := strings.Repeat("x", 900)
	data := `{"question": "Q?", "options": ["a", "b"], "correctAnswer": 0, "codeContext": "` + longContext + `"}`
	q, ok := normalizeQuestion(json.RawMessage(data), 2, 4)
	if !ok {
		t.Fatal("question should survive")
	}
	if q.ID != "q3" {
		t.Errorf("id = %q, want q3", q.ID)
	}
	if len(q.CodeContext) != maxCodeContextChars+3 || !strings.HasSuffix(q.CodeContext, "...") {
		t.Errorf("codeContext length = %d, want %d plus ellipsis", len(q.CodeContext), maxCodeContextChars)
	}
}

func TestNormalizeQuestionTruncationMultibyte(t *testing.T) {
	longContext := strings.Repeat("가", 900)
	data := `{"question": "Q?", "options": ["a", "b"], "correctAnswer": 0, "codeContext": "` + longContext + `"}`
	q, ok := normalizeQuestion(json.RawMessage(data), 0, 4)
	if !ok {
		t.Fatal("question should survive")
	}
	if !utf8.ValidString(q.CodeContext) {
		t.Error("truncated codeContext must stay valid UTF-8")
	}
	if got := utf8.RuneCountInString(q.CodeContext); got != maxCodeContextChars+3 {
		t.Errorf("codeContext rune count = %d, want %d plus ellipsis", got, maxCodeContextChars)
	}
	if !strings.HasSuffix(q.CodeContext, "...") {
		t.Error("truncated codeContext must end with ellipsis")
	}
}

func TestTruncateChars(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		max           int
		want          string
		wantTruncated bool
	}{
		{"short ascii untouched", "abc", 5, "abc", false},
		{"exact length untouched", "abcde", 5, "abcde", false},
		{"ascii cut", "abcdef", 4, "abcd", true},
		{"korean cut on rune boundary", "가나다라마", 3, "가나다", true},
		{"korean untouched under limit", "가나다", 5, "가나다", false},
		{"empty", "", 3, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := truncateChars(tt.in, tt.max)
			if got != tt.want || truncated != tt.wantTruncated {
				t.Errorf("truncateChars(%q, %d) = (%q, %v), want (%q, %v)",
					tt.in, tt.max, got, truncated, tt.want, tt.wantTruncated)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateChars(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}

func TestTruncatePatchMultibyte(t *testing.T) {
	patch := strings.Repeat("한", 50)
	got := truncatePatch(patch, 10)
	if !utf8.ValidString(got) {
		t.Error("truncated patch must stay valid UTF-8")
	}
	if !strings.HasPrefix(got, strings.Repeat("한", 10)) || !strings.HasSuffix(got, "... (truncated) ...") {
		t.Errorf("truncatePatch produced %q", got)
	}
	if same := truncatePatch("short", 10); same != "short" {
		t.Errorf("short patch changed: %q", same)
	}
}

func TestNormalizeShortAnswerChain(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"correctAnswer field", `{"question": "Q?", "type": "short", "correctAnswer": "mutex"}`, "mutex"},
		{"answer alias", `{"question": "Q?", "type": "short", "answer": "channel"}`, "channel"},
		{"shortAnswer alias", `{"question": "Q?", "type": "short", "shortAnswer": "defer"}`, "defer"},
		{"expectedAnswer one-element list", `{"question": "Q?", "type": "short", "expectedAnswer": ["select"]}`, "select"},
		{"numeric answer", `{"question": "Q?", "type": "short", "answer": 42}`, "42"},
		{"explanation first line", `{"question": "Q?", "type": "short", "explanation": "goroutine leak\nmore detail"}`, "goroutine leak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := normalizeQuestion(json.RawMessage(tt.data), 0, 4)
			if !ok {
				t.Fatal("question should survive")
			}
			if q.CorrectAnswer != tt.want {
				t.Errorf("correctAnswer = %v, want %q", q.CorrectAnswer, tt.want)
			}
		})
	}
}

func TestNormalizeShortAnswerNoSource(t *testing.T) {
	data := `{"question": "Q?", "type": "short"}`
	if _, ok := normalizeQuestion(json.RawMessage(data), 0, 4); ok {
		t.Error("short question with no answer source must be dropped")
	}
}

func TestNormalizeQuestionsInvariants(t *testing.T) {
	items := rawQuestions(t, `[
		{"question": "ok 1", "options": ["a", "b", "c"], "correctAnswer": 2},
		{"question": "missing options", "type": "multiple", "correctAnswer": 0},
		{"question": "ok 2", "options": ["a", "b"], "correctAnswer": "b"},
		"not an object",
		{"question": "answer out of range", "options": ["a", "b"], "correctAnswer": 5}
	]`)

	questions := normalizeQuestions(items, 4)
	if len(questions) != 2 {
		t.Fatalf("survivors = %d, want 2", len(questions))
	}
	for _, q := range questions {
		if q.Type != models.QuestionTypeMultiple {
			continue
		}
		idx, ok := answerIndex(q.CorrectAnswer)
		if !ok || idx < 0 || idx >= len(q.Options) {
			t.Errorf("question %s violates answer invariant: %v of %v", q.ID, q.CorrectAnswer, q.Options)
		}
		if len(q.Options) < 2 || len(q.Options) > 4 {
			t.Errorf("question %s violates option-count invariant: %v", q.ID, q.Options)
		}
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{"above range", float64(150), 100},
		{"below range", float64(-5), 0},
		{"in range", float64(85), 85},
		{"numeric string", "42", 42},
		{"non numeric string", "abc", 75},
		{"nil", nil, 75},
		{"object", map[string]any{}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampScore(tt.input); got != tt.want {
				t.Errorf("clampScore(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeQualityDefaults(t *testing.T) {
	q := normalizeQuality(json.RawMessage(`{"readability": 120, "security": "bad"}`))
	if q.Readability != 100 {
		t.Errorf("readability = %d, want 100", q.Readability)
	}
	if q.Performance != 75 || q.Security != 75 {
		t.Errorf("missing/invalid scores should default to 75, got %+v", q)
	}
}

func TestNormalizeTopics(t *testing.T) {
	var items []json.RawMessage
	fixture := `[
		{"title": "Pooling", "description": "Connection pool tuning", "keywords": ["pgx", 7, ""]},
		{"title": "", "description": "no title"},
		{"description": "no title key at all"},
		{"title": "Indexes", "description": "Query planning"}
	]`
	if err := json.Unmarshal([]byte(fixture), &items); err != nil {
		t.Fatal(err)
	}

	topics := normalizeTopics(items)
	if len(topics) != 2 {
		t.Fatalf("topics = %d, want 2", len(topics))
	}
	if topics[0].ID != "topic_1" {
		t.Errorf("id = %q, want topic_1", topics[0].ID)
	}
	if len(topics[0].Keywords) != 2 {
		t.Errorf("keywords = %v, want pgx and 7", topics[0].Keywords)
	}
	if topics[1].ID != "topic_4" {
		t.Errorf("id = %q, want topic_4 (positional)", topics[1].ID)
	}
}
