package chat

import (
	"math/rand"
	"strings"
)

// ResponseFamily groups fallback templates; the family is chosen from the
// inferred emotional tone first, then intent, then topic.
type ResponseFamily string

const (
	FamilySupportive     ResponseFamily = "supportive"
	FamilyExploratory    ResponseFamily = "exploratory"
	FamilyClarifying     ResponseFamily = "clarifying"
	FamilyAdvanced       ResponseFamily = "advanced"
	FamilyGreeting       ResponseFamily = "greeting"
	FamilyHelp           ResponseFamily = "help"
	FamilyAcknowledgment ResponseFamily = "acknowledgment"
	FamilyTopic          ResponseFamily = "topic"
	FamilyGeneric        ResponseFamily = "generic"
)

// FallbackTemplate is one canned reply. Text containing the {topics}
// slot gets the detected topic list filled in; templates without the slot
// are usable for any context.
type FallbackTemplate struct {
	Family ResponseFamily
	Text   string
}

// fallbackTemplates is the static table loaded at construction, read-only
// afterwards. Safe to share across concurrent requests.
var fallbackTemplates = []FallbackTemplate{
	{FamilySupportive, "It sounds like this one is wearing you down. That's completely normal with tough material. Let's slow down and take it one small step at a time. What part tripped you up first?"},
	{FamilySupportive, "Hang in there. Everyone hits a wall on problems like this. Tell me the last step that made sense and we'll rebuild from there."},
	{FamilySupportive, "Struggling with {topics} doesn't mean you can't do it. It means you're at the edge of what you know, which is exactly where learning happens. Want to try a smaller version of the problem together?"},
	{FamilyExploratory, "Great question to dig into. A good way to start is to ask what would happen if we changed one piece of the problem. What do you predict?"},
	{FamilyExploratory, "I love the curiosity. {topics} goes deeper than most people expect. What made you wonder about this?"},
	{FamilyExploratory, "That's the kind of question scientists ask. Let's explore it: what do you already know that might connect to it?"},
	{FamilyClarifying, "Let me try putting it another way. Which part should we untangle first: the setup, the steps, or the final answer?"},
	{FamilyClarifying, "No problem, this concept trips up a lot of students. Can you tell me which sentence or step stopped making sense? We'll start right there."},
	{FamilyClarifying, "Let's rewind a bit. In your own words, what do you think {topics} is about so far? Then I can fill in the gaps."},
	{FamilyAdvanced, "You've clearly got a solid handle on this. Want to push further with a harder variation, or connect it to the next concept up?"},
	{FamilyAdvanced, "Nice. Since the fundamentals are solid, try explaining it back as if you were teaching it. Teaching is the fastest way to find the edges of your understanding."},
	{FamilyGreeting, "Hi there! Ready to learn something new today? Tell me what subject you're working on and we'll jump in."},
	{FamilyGreeting, "Hello! Great to see you. What would you like to study today?"},
	{FamilyGreeting, "Hey! I'm here and ready to help. What are we tackling today: homework, a tricky concept, or something you're curious about?"},
	{FamilyHelp, "I'm here to help. Walk me through the problem exactly as it's written, and tell me what you've tried so far."},
	{FamilyHelp, "Let's work through it together. Start by telling me what the question is asking for, in your own words."},
	{FamilyAcknowledgment, "You're welcome! Keep that momentum going. Want to try one more on your own while it's fresh?"},
	{FamilyAcknowledgment, "Glad that clicked. A quick review tomorrow will lock it in. Anything else you want to go over?"},
	{FamilyTopic, "We've been covering some good ground in {topics}. What would you like to focus on next: more practice, a recap, or a new angle?"},
	{FamilyTopic, "You're making progress with {topics}. Want me to quiz you on what we've covered, or keep moving forward?"},
	{FamilyGeneric, "I'm here and ready to help with your studies. Tell me a bit more about what you're working on and we'll take it from there."},
	{FamilyGeneric, "Let's keep going. Share the problem or topic you have in mind, and I'll help you break it down."},
}

// genericFallbackText is the reply of last resort. Generate never returns
// an empty string.
const genericFallbackText = "I'm here to help you learn. What would you like to work on?"

// Selector picks an index in [0, n). Injectable so tests can assert exact
// output instead of "one of N strings".
type Selector func(n int) int

// FallbackGenerator deterministically produces a context-flavored reply
// when every provider fails. Pure given its selection source.
type FallbackGenerator struct {
	templates map[ResponseFamily][]FallbackTemplate
	pick      Selector
}

// NewFallbackGenerator seeds template selection from the given seed.
func NewFallbackGenerator(seed int64) *FallbackGenerator {
	rng := rand.New(rand.NewSource(seed))
	return NewFallbackGeneratorWithSelector(func(n int) int { return rng.Intn(n) })
}

// NewFallbackGeneratorWithSelector injects an explicit selection source.
func NewFallbackGeneratorWithSelector(pick Selector) *FallbackGenerator {
	byFamily := make(map[ResponseFamily][]FallbackTemplate)
	for _, t := range fallbackTemplates {
		byFamily[t.Family] = append(byFamily[t.Family], t)
	}
	if pick == nil {
		pick = func(int) int { return 0 }
	}
	return &FallbackGenerator{templates: byFamily, pick: pick}
}

// Generate selects a reply for the given context. Tone picks the family
// first; a neutral tone falls through to intent, then topic, then the
// generic family.
func (g *FallbackGenerator) Generate(context ConversationContext) string {
	family := g.familyFor(context)

	candidates := g.templates[family]
	if len(candidates) == 0 {
		candidates = g.templates[FamilyGeneric]
	}
	if len(candidates) == 0 {
		return genericFallbackText
	}

	text := candidates[g.pick(len(candidates))].Text
	text = fillTopicSlot(text, context.Topics)
	if strings.TrimSpace(text) == "" {
		return genericFallbackText
	}
	return text
}

func (g *FallbackGenerator) familyFor(context ConversationContext) ResponseFamily {
	switch context.Tone {
	case ToneFrustrated:
		return FamilySupportive
	case ToneCurious:
		return FamilyExploratory
	case ToneConfused:
		return FamilyClarifying
	case ToneConfident:
		return FamilyAdvanced
	}

	switch context.Intent {
	case IntentGreeting:
		return FamilyGreeting
	case IntentHelpRequest:
		return FamilyHelp
	case IntentAcknowledgment:
		return FamilyAcknowledgment
	case IntentClarification:
		return FamilyClarifying
	}

	if len(context.Topics) > 0 {
		return FamilyTopic
	}
	return FamilyGeneric
}

// fillTopicSlot substitutes the {topics} slot with a humanized topic list.
// Templates with the slot but no detected topics fall back to neutral
// wording so the sentence still reads naturally.
func fillTopicSlot(text string, topics []TopicTag) string {
	if !strings.Contains(text, "{topics}") {
		return text
	}
	return strings.ReplaceAll(text, "{topics}", humanizeTopics(topics))
}

func humanizeTopics(topics []TopicTag) string {
	if len(topics) == 0 {
		return "this subject"
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = strings.ReplaceAll(string(t), "_", " ")
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
