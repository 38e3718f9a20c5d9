package intent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/intent"
)

func assistant(text string) []chat.Turn {
	return []chat.Turn{
		{Role: chat.RoleUser, Text: "hi"},
		{Role: chat.RoleAssistant, Text: text},
	}
}

func TestClassifier_Scenarios(t *testing.T) {
	c := intent.Default()

	assert.True(t, c.WantsPlan(nil, "build me a weekly schedule"))
	assert.False(t, c.WantsPlan(nil, "which subjects am I weak in?"))
	assert.True(t, c.WantsPlan(assistant("Should I put together a study schedule for you?"), "yes"))
	assert.False(t, c.WantsPlan(assistant("Your last TYT exam scores went up by 6 nets."), "yes"))
}

func TestKeywordMatcher(t *testing.T) {
	m := intent.KeywordMatcher{}

	for _, msg := range []string{
		"Bana haftalık program hazırlar mısın?",
		"haftalık çalışma planı oluştur",
		"Can you generate a study plan for next week",
		"I need a new timetable",
		"PROGRAM YAP",
	} {
		assert.True(t, m.Match(nil, msg), msg)
	}

	for _, msg := range []string{
		"what is a derivative?",
		"my plan went badly this week",
		"make the explanation shorter",
		"",
	} {
		assert.False(t, m.Match(nil, msg), msg)
	}
}

func TestContextualAffirmation(t *testing.T) {
	m := intent.ContextualAffirmation{MaxWords: 5}
	offer := assistant("Want me to build a weekly program?")

	for _, msg := range []string{"yes", "Evet", "go ahead", "do it!", "tamam hazırla", "yes build it"} {
		assert.True(t, m.Match(offer, msg), msg)
	}

	assert.False(t, m.Match(offer, "no thanks"))
	assert.False(t, m.Match(offer, "hayır"))
	assert.False(t, m.Match(offer, "why do you think geometry is my weak area"))
	assert.False(t, m.Match(nil, "yes"), "no preceding assistant turn")
	assert.False(t, m.Match(offer, "hmm"))
}

func TestContextualAffirmation_UsesLatestAssistantTurn(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleAssistant, Text: "I can draft a schedule later."},
		{Role: chat.RoleUser, Text: "first, how were my scores?"},
		{Role: chat.RoleAssistant, Text: "Your math net rose to 28."},
	}
	assert.False(t, intent.Default().WantsPlan(history, "ok"))
}

func TestExplain(t *testing.T) {
	ok, name := intent.Default().Explain(nil, "make me a program")
	assert.True(t, ok)
	assert.Equal(t, "keyword", name)

	ok, name = intent.Default().Explain(assistant("Shall I prepare a plan?"), "sure")
	assert.True(t, ok)
	assert.Equal(t, "affirmation", name)
}

func TestKeywordMatcher_WholeWordsAndNegation(t *testing.T) {
	m := intent.KeywordMatcher{}

	for _, msg := range []string{
		"I don't want a plan right now",
		"I need to plant trees",
		"we need a planet for the physics question",
		"the new version of the book is very good",
		"programı istemiyorum",
		"I don't need a schedule yet",
	} {
		assert.False(t, m.Match(nil, msg), msg)
	}

	for _, msg := range []string{
		"programımı yeniden hazırla",
		"I want two schedules, one for weekdays",
		"ders programını ver",
		"build me a programme",
	} {
		assert.True(t, m.Match(nil, msg), msg)
	}
}

func TestContextualAffirmation_IgnoresPlanLikeWords(t *testing.T) {
	history := assistant("Your net on the planetary physics section rose.")
	assert.False(t, intent.Default().WantsPlan(history, "yes"))

	assert.False(t, intent.MentionsSchedule("The plantation essay is due"))
	assert.True(t, intent.MentionsSchedule("Haftalık planınız hazır mı?"))
}
