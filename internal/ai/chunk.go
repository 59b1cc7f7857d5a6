package ai

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize = 10000
	summarySeparator = "\n\n---\n\n"
)

// chunkText splits text into consecutive chunks of at most size runes.
func chunkText(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[i:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func mergeStudyMaterial(dst, part StudyMaterial) StudyMaterial {
	if s := strings.TrimSpace(part.Summary); s != "" {
		if dst.Summary == "" {
			dst.Summary = s
		} else {
			dst.Summary += summarySeparator + s
		}
	}

	seen := make(map[string]struct{}, len(dst.KeyPoints))
	for _, kp := range dst.KeyPoints {
		seen[dedupeKey(kp)] = struct{}{}
	}
	for _, kp := range part.KeyPoints {
		k := dedupeKey(kp)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		dst.KeyPoints = append(dst.KeyPoints, strings.TrimSpace(kp))
	}

	cards := make(map[string]struct{}, len(dst.Flashcards))
	for _, c := range dst.Flashcards {
		cards[dedupeKey(c.Question)] = struct{}{}
	}
	for _, c := range part.Flashcards {
		k := dedupeKey(c.Question)
		if _, ok := cards[k]; ok || k == "" {
			continue
		}
		cards[k] = struct{}{}
		dst.Flashcards = append(dst.Flashcards, c)
	}

	questions := make(map[string]struct{}, len(dst.Quiz))
	for _, q := range dst.Quiz {
		questions[dedupeKey(q.Question)] = struct{}{}
	}
	for _, q := range part.Quiz {
		k := dedupeKey(q.Question)
		if _, ok := questions[k]; ok || k == "" {
			continue
		}
		questions[k] = struct{}{}
		dst.Quiz = append(dst.Quiz, q)
	}
	return dst
}

// dedupeKey folds case and collapses whitespace.
func dedupeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
