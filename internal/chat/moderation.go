package chat

import (
	"regexp"
	"sort"
	"strings"
)

// Category names a class of disallowed content with a dedicated canned
// reply.
type Category string

const (
	CategoryNone              Category = ""
	CategoryExplicitSexual    Category = "explicit_sexual"
	CategoryGraphicViolence   Category = "graphic_violence"
	CategorySelfHarm          Category = "self_harm"
	CategoryHateSpeech        Category = "hate_speech"
	CategoryDangerousActivity Category = "dangerous_activity"
)

// Verdict is the outcome of classifying one inbound user message. It is
// recomputed per request and never cached.
type Verdict struct {
	Allowed     bool
	Category    Category
	CannedReply string
	// Bypassed is true when the quiz/assessment exemption short-circuited
	// classification entirely.
	Bypassed bool
}

// CategoryRule is one blocking matcher. Rules of higher priority win when
// several categories match the same text.
type CategoryRule struct {
	Category Category
	Pattern  *regexp.Regexp
	Priority int
}

// AllowRule narrows a blocking category: when its pattern also matches the
// text, the named category does not block. Exceptions are additive data,
// not control flow.
type AllowRule struct {
	Overrides Category
	Pattern   *regexp.Regexp
}

var defaultCategoryRules = []CategoryRule{
	{CategorySelfHarm, regexp.MustCompile(`(?i)\b(kill(ing)?\s+myself|suicid(e|al)|self[\s-]?harm|hurt(ing)?\s+myself|end(ing)?\s+my\s+life|cut(ting)?\s+myself)\b`), 100},
	{CategoryDangerousActivity, regexp.MustCompile(`(?i)\b(make|build|making|building)\s+(a\s+|an\s+)?(bomb|explosive|weapon|gun|silencer)\b|\b(synthesi[sz]e|cook(ing)?)\s+(meth|drugs)\b|\bhow\s+to\s+(poison|pick\s+a\s+lock)\b`), 95},
	{CategoryHateSpeech, regexp.MustCompile(`(?i)\b(racial\s+slurs?|ethnic\s+cleansing|gas\s+the\b|white\s+power|kill\s+all\s+(the\s+)?\w+\s+people|inferior\s+race)\b`), 90},
	{CategoryGraphicViolence, regexp.MustCompile(`(?i)\b(gore|behead(ing)?|tortur(e|ing)|mutilat(e|ion|ing)|dismember)\b|\bhow\s+to\s+(kill|hurt|attack)\s+(someone|a\s+person|people|my)\b`), 85},
	{CategoryExplicitSexual, regexp.MustCompile(`(?i)\b(porn(ography)?|erotic(a)?|sexual(ly)?\s+(explicit|acts?)|explicit\s+sex|nsfw|nude\s+(photo|image|picture)s?)\b|\bsex\b`), 80},
}

var defaultAllowRules = []AllowRule{
	// Biology, health education, and anatomy coursework legitimately
	// mention reproduction and sexual development.
	{CategoryExplicitSexual, regexp.MustCompile(`(?i)\b(biolog(y|ical)|anatomy|reproduct(ion|ive)|health\s+(class|education)|sex(ual)?\s+education|puberty|cell\s+division|meiosis|mitosis|pollination|chromosomes?)\b`)},
	// History and literature units cover wars and violent events.
	{CategoryGraphicViolence, regexp.MustCompile(`(?i)\b(histor(y|ical)|world\s+war|civil\s+war|revolution(ary)?|battle\s+of|literature|novel|shakespeare|textbook|essay)\b`)},
	// Chemistry homework references reactions and compounds.
	{CategoryDangerousActivity, regexp.MustCompile(`(?i)\b(chemistry\s+(class|homework|lab)|chemical\s+(reaction|equation)|balanc(e|ing)\s+equations?|history\s+of)\b`)},
}

// quizBypassPattern recognizes quiz/assessment generation requests, which
// skip every category. Evaluated before any blocking rule.
//
// TODO: the exemption currently keys on the whole message; restrict it to
// requests the quiz generator itself will accept once that contract lands.
var quizBypassPattern = regexp.MustCompile(`(?i)\b(generate|create|make|build|write|give)\b.{0,60}\b(quiz(zes)?|assessments?|practice\s+(test|exam|questions)|flashcards?)\b|\bquiz\s+me\b`)

var defaultCannedReplies = map[Category]string{
	CategoryExplicitSexual:    "I can't help with explicit content. I'm here to help you learn, though. Want to pick up where we left off with your coursework?",
	CategoryGraphicViolence:   "I can't go into graphic violence. If you're studying a historical event or a book that covers difficult material, tell me the assignment and we can approach it that way.",
	CategorySelfHarm:          "I'm really sorry you're feeling this way. I'm not able to help with this, but talking to someone you trust or a counselor can make a real difference. If you're in the US you can call or text 988 any time. I'm still here to study with you whenever you're ready.",
	CategoryHateSpeech:        "I won't produce content that targets or demeans groups of people. I'm glad to help you study how societies have confronted prejudice, if that's the assignment.",
	CategoryDangerousActivity: "I can't give instructions for anything dangerous. If this is for a chemistry or physics class, share the actual problem and we'll work through the coursework version.",
}

// ModerationEngine classifies inbound text against an ordered category rule
// table. It is a pure function over static data: safe to share across
// requests without locking.
type ModerationEngine struct {
	bypass  *regexp.Regexp
	rules   []CategoryRule
	allows  map[Category][]*regexp.Regexp
	replies map[Category]string
}

// NewModerationEngine builds an engine over the default tutoring taxonomy.
func NewModerationEngine() *ModerationEngine {
	return NewModerationEngineWithRules(defaultCategoryRules, defaultAllowRules, defaultCannedReplies, quizBypassPattern)
}

// NewModerationEngineWithRules builds an engine from an explicit rule table.
// Rules are evaluated highest priority first; ties keep table order.
func NewModerationEngineWithRules(rules []CategoryRule, allows []AllowRule, replies map[Category]string, bypass *regexp.Regexp) *ModerationEngine {
	sorted := make([]CategoryRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	allowIndex := make(map[Category][]*regexp.Regexp, len(allows))
	for _, a := range allows {
		allowIndex[a.Overrides] = append(allowIndex[a.Overrides], a.Pattern)
	}

	return &ModerationEngine{
		bypass:  bypass,
		rules:   sorted,
		allows:  allowIndex,
		replies: replies,
	}
}

// Classify returns the verdict for one piece of user-authored text. The
// engine never fails: empty or unrecognized input is allowed by default,
// since moderation is a gate, not a source of truth.
func (e *ModerationEngine) Classify(text string) Verdict {
	text = strings.TrimSpace(text)
	if text == "" {
		return Verdict{Allowed: true}
	}

	if e.bypass != nil && e.bypass.MatchString(text) {
		return Verdict{Allowed: true, Bypassed: true}
	}

	for _, rule := range e.rules {
		if !rule.Pattern.MatchString(text) {
			continue
		}
		if e.overridden(rule.Category, text) {
			continue
		}
		return Verdict{
			Allowed:     false,
			Category:    rule.Category,
			CannedReply: e.replies[rule.Category],
		}
	}

	return Verdict{Allowed: true}
}

func (e *ModerationEngine) overridden(category Category, text string) bool {
	for _, pattern := range e.allows[category] {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
