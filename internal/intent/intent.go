// Package intent decides whether a user turn asks for a full weekly study
// schedule. It works on text only so it can run without a model call.
package intent

import (
	"strings"

	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

// Signal is one piece of evidence that a schedule was requested.
type Signal interface {
	Name() string
	Match(history []chat.Turn, message string) bool
}

// Classifier evaluates its signals in order; the first match wins. With no
// match the verdict is "ordinary chat".
type Classifier struct {
	signals []Signal
}

func New(signals ...Signal) *Classifier {
	return &Classifier{signals: signals}
}

// Default is the keyword matcher followed by contextual affirmation.
func Default() *Classifier {
	return New(KeywordMatcher{}, ContextualAffirmation{MaxWords: 5})
}

// WantsPlan reports whether message, given the prior turns, requests a plan.
func (c *Classifier) WantsPlan(history []chat.Turn, message string) bool {
	ok, _ := c.Explain(history, message)
	return ok
}

// Explain is WantsPlan plus the name of the signal that fired.
func (c *Classifier) Explain(history []chat.Turn, message string) (bool, string) {
	for _, s := range c.signals {
		if s.Match(history, message) {
			return true, s.Name()
		}
	}
	return false, ""
}

// Schedule noun stems. A word counts when it is a stem followed by nothing or
// by one of nounSuffixes, so "programı" and "planını" match while "plant"
// and "planet" do not.
var scheduleNouns = []string{
	"schedule", "plan", "program", "programme", "timetable", "routine",
	"takvim", "cizelge", "cetvel",
}

// English plurals and the Turkish case and possessive endings (folded).
var nounSuffixes = []string{
	"", "s",
	"i", "im", "imi", "imiz", "imizi", "in", "ini", "ina", "inda", "iniz", "inizi",
	"a", "e", "da", "de", "la", "le", "lar", "ler", "lari", "leri", "larini", "lerini",
	"si", "sini", "sina", "m", "mi", "n", "ni", "y", "yi", "ye",
}

// Build/request verbs matched as whole words.
var buildVerbs = map[string]bool{
	"build": true, "make": true, "create": true, "generate": true, "prepare": true, "write": true,
	"draft": true, "design": true, "give": true, "want": true, "need": true, "redo": true, "recreate": true,
	"yap": true, "yapar": true, "yapin": true, "yapsana": true, "yapabilir": true,
	"yaz": true, "yazar": true, "yazin": true, "yazsana": true, "yazabilir": true,
	"kur": true, "kurar": true, "kurabilir": true,
	"ver": true, "verir": true, "verin": true, "versene": true, "verebilir": true,
	"istiyorum": true, "lazim": true,
}

// Turkish verb stems long enough to prefix match safely ("hazırlar mısın",
// "oluşturur musun").
var buildVerbStems = []string{"hazirla", "olustur", "cikar"}

var negations = map[string]bool{
	"no": true, "not": true, "nope": true, "dont": true, "don": true, "doesn": true, "didn": true, "never": true,
	"hayir": true, "yok": true, "istemiyorum": true, "istemem": true,
}

func isScheduleNoun(w string) bool {
	for _, stem := range scheduleNouns {
		rest, ok := strings.CutPrefix(w, stem)
		if !ok {
			continue
		}
		for _, suf := range nounSuffixes {
			if rest == suf {
				return true
			}
		}
	}
	return false
}

func isBuildVerb(w string) bool {
	if buildVerbs[w] {
		return true
	}
	for _, stem := range buildVerbStems {
		if strings.HasPrefix(w, stem) {
			return true
		}
	}
	return false
}

func anyWord(words []string, pred func(string) bool) bool {
	for _, w := range words {
		if pred(w) {
			return true
		}
	}
	return false
}

func negated(words []string) bool {
	return anyWord(words, func(w string) bool { return negations[w] })
}

// MentionsSchedule reports whether text talks about a schedule, plan or program.
func MentionsSchedule(text string) bool {
	return anyWord(textnorm.Words(text), isScheduleNoun)
}

// KeywordMatcher fires when the message pairs a schedule noun with a build
// or request verb: "build me a weekly schedule", "haftalık program hazırla".
// A negation anywhere in the message ("I don't want a plan") vetoes it.
type KeywordMatcher struct{}

func (KeywordMatcher) Name() string { return "keyword" }

func (KeywordMatcher) Match(_ []chat.Turn, message string) bool {
	words := textnorm.Words(message)
	if negated(words) {
		return false
	}
	return anyWord(words, isScheduleNoun) && anyWord(words, isBuildVerb)
}

var affirmativeWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "ok": true, "okay": true, "sure": true,
	"please": true, "absolutely": true, "definitely": true,
	"evet": true, "olur": true, "tamam": true, "tabi": true, "tabii": true, "aynen": true,
	"elbette": true, "lutfen": true, "hazirla": true, "yap": true, "basla": true,
}

var affirmativePhrases = []string{"go ahead", "do it", "lets go", "let s go", "sounds good", "hadi bakalim"}

// ContextualAffirmation fires on a short affirmative reply ("yes", "go
// ahead") when the previous assistant message offered a schedule.
type ContextualAffirmation struct {
	MaxWords int
}

func (ContextualAffirmation) Name() string { return "affirmation" }

func (c ContextualAffirmation) Match(history []chat.Turn, message string) bool {
	words := textnorm.Words(message)
	if len(words) == 0 || (c.MaxWords > 0 && len(words) > c.MaxWords) {
		return false
	}

	affirmed := false
	for _, w := range words {
		if negations[w] {
			return false
		}
		if affirmativeWords[w] {
			affirmed = true
		}
	}
	if !affirmed {
		joined := strings.Join(words, " ")
		for _, p := range affirmativePhrases {
			if strings.Contains(joined, p) {
				affirmed = true
				break
			}
		}
	}
	if !affirmed {
		return false
	}

	prev, ok := chat.LastAssistant(history)
	return ok && MentionsSchedule(prev.Text)
}
