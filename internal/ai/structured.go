package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrMalformedGeneration = errors.New("malformed structured generation")
	ErrUpstreamUnavailable = errors.New("generation upstream unavailable")
)

var fencedBlock = regexp.MustCompile("```(?:json|JSON)?[ \\t]*\\r?\\n([\\s\\S]*?)\\r?\\n?```")

type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	Answer       string   `json:"answer,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Tip   string `json:"tip,omitempty"`
}

type StudyCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// StudyMaterial is the summary/keyPoints/flashcards/quiz document produced
// for uploaded or pasted content.
type StudyMaterial struct {
	Summary    string         `json:"summary"`
	KeyPoints  []string       `json:"keyPoints"`
	Flashcards []StudyCard    `json:"flashcards"`
	Quiz       []QuizQuestion `json:"quiz"`
}

// ParseStructured decodes a model response into out. The JSON may be wrapped
// in a Markdown code fence or surrounded by prose; the first candidate span
// that decodes wins.
func ParseStructured(text string, out any) error {
	candidates := jsonCandidates(text)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: no json payload found", ErrMalformedGeneration)
	}
	var firstErr error
	for _, payload := range candidates {
		err := json.Unmarshal([]byte(payload), out)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return fmt.Errorf("%w: %w", ErrMalformedGeneration, firstErr)
}

// jsonCandidates returns the spans that may hold the payload: the fenced
// block, then the outermost object and array spans in order of appearance.
func jsonCandidates(text string) []string {
	text = strings.TrimSpace(text)
	var out []string
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}

	type span struct{ start, end int }
	var spans []span
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair[0])
		end := strings.LastIndexByte(text, pair[1])
		if start >= 0 && end > start {
			spans = append(spans, span{start, end})
		}
	}
	if len(spans) == 2 && spans[1].start < spans[0].start {
		spans[0], spans[1] = spans[1], spans[0]
	}
	for _, sp := range spans {
		if c := text[sp.start : sp.end+1]; !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
