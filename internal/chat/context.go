package chat

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var analyzerTracer = otel.Tracer("tutor/context-analyzer")

// contextWindow is how many trailing user messages feed the analysis.
const contextWindow = 6

type TopicTag string

const (
	TopicMath          TopicTag = "math"
	TopicScience       TopicTag = "science"
	TopicProgramming   TopicTag = "programming"
	TopicWriting       TopicTag = "writing"
	TopicSocialStudies TopicTag = "social_studies"
	TopicCreativeArts  TopicTag = "creative_arts"
)

type Tone string

const (
	ToneFrustrated Tone = "frustrated"
	ToneCurious    Tone = "curious"
	ToneConfused   Tone = "confused"
	ToneConfident  Tone = "confident"
	ToneNeutral    Tone = "neutral"
)

type KnowledgeLevel string

const (
	LevelBeginner     KnowledgeLevel = "beginner"
	LevelIntermediate KnowledgeLevel = "intermediate"
	LevelAdvanced     KnowledgeLevel = "advanced"
)

type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentHelpRequest    Intent = "help_request"
	IntentClarification  Intent = "clarification"
	IntentAcknowledgment Intent = "acknowledgment"
	IntentOther          Intent = "other"
)

// ConversationContext is a view derived fresh from the trailing message
// window on every turn. It is never persisted and always computable: at
// worst it resolves to the neutral/intermediate/other defaults.
type ConversationContext struct {
	Topics []TopicTag
	Tone   Tone
	Level  KnowledgeLevel
	Intent Intent
}

var topicPatterns = map[TopicTag]*regexp.Regexp{
	TopicMath:          regexp.MustCompile(`(?i)\b(math|algebra|geometry|calculus|trigonometry|equation|fraction|integral|derivative|polynomial|theorem)\b`),
	TopicScience:       regexp.MustCompile(`(?i)\b(science|biology|chemistry|physics|photosynthesis|molecule|atom|ecosystem|gravity|evolution|cell|experiment)\b`),
	TopicProgramming:   regexp.MustCompile(`(?i)\b(programming|coding|code|python|javascript|algorithm|function|variable|debug|compiler|loop|array)\b`),
	TopicWriting:       regexp.MustCompile(`(?i)\b(essay|writing|paragraph|thesis|grammar|punctuation|drafting|outline|proofread|citation)\b`),
	TopicSocialStudies: regexp.MustCompile(`(?i)\b(history|geography|civics|government|economics|constitution|revolution|ancient|empire|democracy)\b`),
	TopicCreativeArts:  regexp.MustCompile(`(?i)\b(art|music|drawing|painting|theater|theatre|poetry|sculpture|composition|melody)\b`),
}

// toneDetectors are ordered by override priority: frustration beats
// curiosity beats confusion beats confidence.
var toneDetectors = []struct {
	tone    Tone
	pattern *regexp.Regexp
}{
	{ToneFrustrated, regexp.MustCompile(`(?i)\b(frustrat(ed|ing)|annoy(ed|ing)|give\s+up|giving\s+up|this\s+is\s+(so\s+)?(hard|impossible)|i\s+hate|sick\s+of|fed\s+up|ugh)\b`)},
	{ToneCurious, regexp.MustCompile(`(?i)\b(curious|interesting|fascinating|wonder(ing)?|what\s+if|why\s+does|how\s+come|tell\s+me\s+more|cool)\b`)},
	{ToneConfused, regexp.MustCompile(`(?i)\b(confus(ed|ing)|don'?t\s+(get|understand)|doesn'?t\s+make\s+sense|lost|unclear|what\s+do\s+you\s+mean|huh)\b`)},
	{ToneConfident, regexp.MustCompile(`(?i)\b(i\s+(know|understand|got)\s+(this|it)|easy|makes\s+sense|i'?m\s+(sure|ready|confident)|no\s+problem|piece\s+of\s+cake)\b`)},
}

var advancedTermPattern = regexp.MustCompile(`(?i)\b(derivative|integral|asymptote|polynomial|stoichiometry|thermodynamics|recursion|polymorphism|big[\s-]o|eigenvalue|covalent|mitochondria|dialectic|hypothesis|theorem|syntax)\b`)

var noviceTermPattern = regexp.MustCompile(`(?i)\b(what\s+is\s+a|what\s+does\s+\w+\s+mean|never\s+learned|new\s+to|just\s+start(ed|ing)|basics?|beginner|explain\s+like|simple\s+words|first\s+time)\b`)

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hiya|hello|hey|howdy|yo|good\s+(morning|afternoon|evening)|greetings|what'?s\s+up|sup)[\s!.,?]*$`)

var helpPattern = regexp.MustCompile(`(?i)\b(help|how\s+do\s+i|can\s+you|could\s+you|stuck|explain|show\s+me|walk\s+me\s+through|solve|struggling)\b`)

var clarificationPattern = regexp.MustCompile(`(?i)\b(what\s+do\s+you\s+mean|confus(ed|ing)|don'?t\s+(get|understand)|clarify|again\s+please|repeat\s+that|lost\s+me)\b`)

var acknowledgmentPattern = regexp.MustCompile(`(?i)\b(thanks?|thank\s+you|got\s+it|makes\s+sense|okay|ok|i\s+see|understood|perfect|great)\b`)

// ContextAnalyzer infers topic, tone, knowledge level, and intent from a
// conversation window. Best-effort and deterministic: the same history
// always yields the same context.
type ContextAnalyzer struct{}

func NewContextAnalyzer() *ContextAnalyzer {
	return &ContextAnalyzer{}
}

// Analyze derives a ConversationContext from the trailing window of
// user-authored messages. It never fails.
func (a *ContextAnalyzer) Analyze(ctx context.Context, history []Message) ConversationContext {
	_, span := analyzerTracer.Start(ctx, "context.analyze")
	defer span.End()

	window := UserMessages(history, contextWindow)

	result := ConversationContext{
		Tone:   ToneNeutral,
		Level:  LevelIntermediate,
		Intent: IntentOther,
	}
	if len(window) == 0 {
		return result
	}

	var combined strings.Builder
	for _, m := range window {
		combined.WriteString(m.Content)
		combined.WriteString("\n")
	}
	text := combined.String()

	result.Topics = detectTopics(text)
	result.Tone = detectTone(text)
	result.Level = detectKnowledgeLevel(text)
	result.Intent = detectIntent(window[len(window)-1].Content)

	span.SetAttributes(
		attribute.Int("context.topics", len(result.Topics)),
		attribute.String("context.tone", string(result.Tone)),
		attribute.String("context.level", string(result.Level)),
		attribute.String("context.intent", string(result.Intent)),
	)

	return result
}

func detectTopics(text string) []TopicTag {
	var topics []TopicTag
	for tag, pattern := range topicPatterns {
		if pattern.MatchString(text) {
			topics = append(topics, tag)
		}
	}
	// Map iteration order is random; sort for determinism.
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
	return topics
}

func detectTone(text string) Tone {
	for _, d := range toneDetectors {
		if d.pattern.MatchString(text) {
			return d.tone
		}
	}
	return ToneNeutral
}

func detectKnowledgeLevel(text string) KnowledgeLevel {
	advanced := len(advancedTermPattern.FindAllString(text, -1))
	novice := len(noviceTermPattern.FindAllString(text, -1))

	switch {
	case advanced > novice && advanced > 0:
		return LevelAdvanced
	case novice > advanced && novice > 0:
		return LevelBeginner
	default:
		return LevelIntermediate
	}
}

// detectIntent classifies only the most recent user message: a strict
// greeting match first, then keyword classes.
func detectIntent(latest string) Intent {
	switch {
	case greetingPattern.MatchString(latest):
		return IntentGreeting
	case helpPattern.MatchString(latest):
		return IntentHelpRequest
	case clarificationPattern.MatchString(latest):
		return IntentClarification
	case acknowledgmentPattern.MatchString(latest):
		return IntentAcknowledgment
	default:
		return IntentOther
	}
}
