// Package prompt assembles the text sent to the generation model from a
// session's stored context, the user's message and per-kind parameters.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"studygenie/internal/session"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var ErrUnknownKind = errors.New("unknown prompt kind")

type Kind string

const (
	KindBasic         Kind = "basic"
	KindChat          Kind = "chat"
	KindTutor         Kind = "tutor"
	KindRoadmap       Kind = "roadmap"
	KindQuiz          Kind = "quiz"
	KindFlashcards    Kind = "flashcards"
	KindProblems      Kind = "problems"
	KindRapidFire     Kind = "rapidfire"
	KindStudyPlan     Kind = "studyplan"
	KindStudyMaterial Kind = "studymaterial"
	KindIntro         Kind = "intro"
)

// Structured reports whether the kind asks the model for JSON.
func (k Kind) Structured() bool {
	switch k {
	case KindQuiz, KindFlashcards, KindRapidFire, KindStudyMaterial:
		return true
	}
	return false
}

const (
	DefaultHistoryTurns   = 10
	DefaultMaxSourceChars = 30000
)

type Preferences struct {
	Style string   `json:"style"`
	Tools []string `json:"tools"`
	Pace  string   `json:"pace"`
	Focus string   `json:"focus"`
}

// Params carries the optional inputs of every kind. Zero fields fall back to
// the kind's defaults.
type Params struct {
	Topic         string
	Description   string
	Level         string
	Timeframe     string
	Goals         []string
	Preferences   Preferences
	Difficulty    string
	Count         int
	QuestionType  string
	IncludeSteps  bool
	TimeLimit     int
	TimeAvailable string
	LearningStyle string
	Focus         string
	SourceType    string
}

type Options struct {
	HistoryTurns   int
	MaxSourceChars int
}

type Composer struct {
	tmpl           *template.Template
	historyTurns   int
	maxSourceChars int
}

func New(opts Options) (*Composer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates failed: %w", err)
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = DefaultHistoryTurns
	}
	if opts.MaxSourceChars <= 0 {
		opts.MaxSourceChars = DefaultMaxSourceChars
	}
	return &Composer{
		tmpl:           tmpl,
		historyTurns:   opts.HistoryTurns,
		maxSourceChars: opts.MaxSourceChars,
	}, nil
}

type historyLine struct {
	Speaker string
	Text    string
}

type view struct {
	Message         string
	Topic           string
	Description     string
	Level           string
	Timeframe       string
	Goals           string
	Style           string
	Tools           string
	Pace            string
	Focus           string
	Difficulty      string
	Count           int
	QuestionType    string
	IncludeSteps    bool
	TimeLimit       int
	TimeAvailable   string
	SourceType      string
	Source          string
	SourceTruncated bool
	History         []historyLine
}

// Compose renders the prompt for kind. The tutor, roadmap and intro kinds
// embed the stored source, bounded to the configured number of characters.
func (c *Composer) Compose(kind Kind, sc session.Context, message string, p Params) (string, error) {
	name, ok := templateName(kind)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	v := view{
		Message:      strings.TrimSpace(message),
		Topic:        strings.TrimSpace(p.Topic),
		Description:  orDefault(p.Description, "No additional description provided."),
		Level:        orDefault(p.Level, "beginner"),
		Timeframe:    orDefault(p.Timeframe, "4 weeks"),
		Difficulty:   orDefault(p.Difficulty, "medium"),
		QuestionType: orDefault(p.QuestionType, "multiple-choice"),
		IncludeSteps: p.IncludeSteps,
		TimeLimit:    p.TimeLimit,
		Focus:        strings.ToLower(strings.TrimSpace(p.Focus)),
		SourceType:   orDefault(p.SourceType, "text"),
	}
	if v.TimeLimit <= 0 {
		v.TimeLimit = 30
	}

	switch kind {
	case KindBasic, KindChat:
		v.History = c.history(sc)
	case KindTutor:
		// The level is only shown when the caller asked for it.
		v.Level = strings.TrimSpace(p.Level)
		v.History = c.history(sc)
		v.Source, v.SourceTruncated = c.boundSource(sc.SourceText())
	case KindRoadmap:
		v.Source, v.SourceTruncated = c.boundSource(sc.SourceText())
		v.Goals = joinOr(p.Goals, "Comprehensive understanding of the topic.")
		v.Style = orDefault(p.Preferences.Style, "Mixed (visual, auditory, kinesthetic)")
		v.Tools = joinOr(p.Preferences.Tools, "Any relevant tools")
		v.Pace = orDefault(p.Preferences.Pace, "Self-paced")
		v.Focus = orDefault(p.Preferences.Focus, "Comprehensive understanding")
	case KindQuiz:
		v.Count = countOr(p.Count, 5)
		v.Source, _ = c.boundSource(sc.SourceText())
	case KindFlashcards:
		v.Count = countOr(p.Count, 10)
		v.Source, _ = c.boundSource(sc.SourceText())
	case KindProblems:
		v.Count = countOr(p.Count, 5)
	case KindRapidFire:
		v.Count = countOr(p.Count, 10)
	case KindStudyPlan:
		v.Goals = joinOr(p.Goals, "")
		v.TimeAvailable = orDefault(p.TimeAvailable, "1 hour/day")
		v.Style = orDefault(p.LearningStyle, "mixed")
	case KindStudyMaterial:
		v.History = c.history(sc)
	case KindIntro:
		if sc.Source != nil && sc.Source.Type != "" && p.SourceType == "" {
			v.SourceType = sc.Source.Type
		}
		v.Source, v.SourceTruncated = c.boundSource(sc.SourceText())
	}

	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, v); err != nil {
		return "", fmt.Errorf("render %s prompt failed: %w", kind, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func templateName(kind Kind) (string, bool) {
	switch kind {
	case KindBasic, KindChat:
		return "basic.tmpl", true
	case KindTutor, KindRoadmap, KindQuiz, KindFlashcards, KindProblems,
		KindRapidFire, KindStudyPlan, KindStudyMaterial, KindIntro:
		return string(kind) + ".tmpl", true
	}
	return "", false
}

func (c *Composer) history(sc session.Context) []historyLine {
	turns := sc.RecentTurns(c.historyTurns)
	if len(turns) == 0 {
		return nil
	}
	lines := make([]historyLine, 0, len(turns))
	for _, t := range turns {
		speaker := "AI"
		if t.Role == session.RoleUser {
			speaker = "User"
		}
		lines = append(lines, historyLine{Speaker: speaker, Text: t.Text})
	}
	return lines
}

func (c *Composer) boundSource(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= c.maxSourceChars {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:c.maxSourceChars]), true
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func joinOr(items []string, def string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return def
	}
	return strings.Join(kept, ", ")
}

func countOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
