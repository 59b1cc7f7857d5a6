package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"studygenie/internal/prompt"
)

// fallbackText is the deterministic reply used when no model answered. For
// structured kinds it is a fenced JSON document of the requested shape.
func fallbackText(req Request) string {
	switch req.Kind {
	case prompt.KindQuiz, prompt.KindRapidFire:
		return fencedJSON(fallbackQuiz(req.Topic))
	case prompt.KindFlashcards:
		return fencedJSON(fallbackFlashcards(req.Topic))
	case prompt.KindStudyMaterial:
		return fencedJSON(fallbackStudyMaterial(req.Content))
	case prompt.KindTutor, prompt.KindIntro:
		if req.HasSource {
			return fallbackTutor(req)
		}
		return fallbackBasic(req)
	case prompt.KindRoadmap:
		return fallbackRoadmap(req)
	case prompt.KindProblems:
		return fmt.Sprintf("Practice problems about %s are not available right now because the AI service is not configured. "+
			"Try working through the end-of-chapter exercises of your textbook in the meantime.", topicOr(req.Topic))
	case prompt.KindStudyPlan:
		return "**Study plan (offline template)**\n\n" +
			"- **Week 1:** Review the fundamentals and collect your sources.\n" +
			"- **Week 2:** Work through core concepts with daily practice.\n" +
			"- **Week 3:** Apply what you learned in exercises and small projects.\n" +
			"- **Week 4:** Revise with quizzes and flashcards, then assess yourself.\n\n" +
			"Configure the Gemini API key to get a personalized plan."
	default:
		return fallbackBasic(req)
	}
}

func fallbackTutor(req Request) string {
	lower := strings.ToLower(keyText(req))
	quoted := strings.TrimSpace(req.Message)
	if quoted == "" {
		quoted = strings.TrimSpace(req.Prompt)
	}

	switch {
	case strings.Contains(lower, "summary"):
		return "Based on the provided source, here's a brief summary: This document primarily discusses [main topic]. It highlights [key point 1] and [key point 2]."
	case strings.Contains(lower, "question"), strings.Contains(lower, "explain"):
		return fmt.Sprintf("Regarding your question about %q based on the source, [provide a relevant explanation from source].", quoted)
	case strings.Contains(lower, "physics"):
		return "From the source, in physics, we can infer that the principles of motion are discussed, focusing on Newton's laws."
	case strings.Contains(lower, "math"):
		return "The source details mathematical concepts like algebra and calculus, essential for problem-solving."
	case strings.Contains(lower, "chemistry"):
		return "In chemistry, the source covers molecular structures and chemical reactions, fundamental for understanding matter."
	}
	return fmt.Sprintf("Understood. Based on the source you provided, let's explore your query: %q. How can I assist further with this material?", quoted)
}

func fallbackRoadmap(req Request) string {
	ref := func(alt string) string {
		if req.HasSource {
			return "Your Source"
		}
		return alt
	}
	topic := topicOr(req.Topic)
	return fmt.Sprintf("Here's a **personalized roadmap template** for you:\n\n"+
		"**Overview:** This roadmap will guide you through understanding %s.\n\n"+
		"**Prerequisites:** Basic familiarity with the vocabulary of the subject.\n\n"+
		"**Modules:**\n"+
		"- **Module 1: Introduction to %s** (Referencing: %s)\n"+
		"- **Module 2: Core Principles** (Referencing: %s)\n"+
		"- **Module 3: Advanced Applications** (Referencing: %s)\n\n"+
		"**Activities:** Readings, Quizzes, Practice Problems.\n"+
		"**Timeline:** Customizable based on your pace.\n"+
		"**Next Steps:** Let's start with Module 1!",
		topic, topic, ref("General Concepts"), ref("Textbook Examples"), ref("Real-world Scenarios"))
}

func fallbackBasic(req Request) string {
	text := keyText(req)
	lower := strings.ToLower(text)

	switch {
	case hasWord(lower, "hello"), hasWord(lower, "hi"):
		return "Hello! How can I assist you with your studies today? Please provide a source (file, link, or text) to get started."
	case strings.Contains(lower, "your purpose"), strings.Contains(lower, "what can you do"):
		return "I am StudyGenie, your AI-powered tutor. I can help you learn by analyzing your sources, generating roadmaps, quizzes, and more!"
	case strings.Contains(lower, "thank"):
		return "You're welcome! Let me know if you need anything else."
	}
	return fmt.Sprintf("I'm running without an AI model. You asked: %q. To get real AI responses, please ensure the Gemini API key is correctly configured.", strings.TrimSpace(text))
}

func fallbackQuiz(topic string) []QuizQuestion {
	t := topicOr(topic)
	return []QuizQuestion{{
		Question: fmt.Sprintf("Which of these is the best first step when studying %s?", t),
		Options: []string{
			"Review the key definitions",
			"Skip to advanced problems",
			"Memorise answers without context",
			"Avoid practice questions",
		},
		Answer:      "Review the key definitions",
		Explanation: "Quiz generation is unavailable; this is a placeholder question.",
	}}
}

func fallbackFlashcards(topic string) []Flashcard {
	t := topicOr(topic)
	return []Flashcard{{
		Front: fmt.Sprintf("What is %s?", t),
		Back:  fmt.Sprintf("Write your own definition of %s from your notes.", t),
		Tip:   "Flashcard generation is unavailable; fill this card in yourself.",
	}}
}

func fallbackStudyMaterial(content string) StudyMaterial {
	return StudyMaterial{
		Summary:    "Study materials could not be generated because the AI service is unavailable.",
		KeyPoints:  leadingSentences(content, 3),
		Flashcards: []StudyCard{},
		Quiz:       []QuizQuestion{},
	}
}

func fencedJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "```json\n{}\n```"
	}
	return "```json\n" + string(b) + "\n```"
}

// keyText is what the substring checks look at: the user's own words when
// known, otherwise the whole prompt.
func keyText(req Request) string {
	if strings.TrimSpace(req.Message) != "" {
		return req.Message
	}
	return req.Prompt
}

func hasWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func leadingSentences(text string, n int) []string {
	out := make([]string, 0, n)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	for _, f := range fields {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		out = append(out, f)
		if len(out) == n {
			break
		}
	}
	return out
}

func topicOr(topic string) string {
	if t := strings.TrimSpace(topic); t != "" {
		return t
	}
	return "this topic"
}
