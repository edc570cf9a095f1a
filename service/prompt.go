package service

import (
	"fmt"
	"strings"
)

// ChatRequest carries a chat turn plus the admin-tunable persona
// parameters the front end sends along with it.
type ChatRequest struct {
	Prompt              string           `json:"prompt" binding:"required"`
	Knowledge           string           `json:"knowledge"`
	Personality         *Personality     `json:"personality"`
	Behavior            *Behavior        `json:"behavior"`
	ConversationHistory []HistoryMessage `json:"conversationHistory"`
}

// Personality tunes Limbo's register.
type Personality struct {
	Backstory   string `json:"backstory"`
	Traits      string `json:"traits"`
	Helpfulness int    `json:"helpfulness"`
	Sarcasm     int    `json:"sarcasm"`
	Enthusiasm  int    `json:"enthusiasm"`
	Awareness   int    `json:"awareness"`
}

// Behavior overrides Limbo's response rules.
type Behavior struct {
	PrimaryRules     string `json:"primaryRules"`
	ResponseExamples string `json:"responseExamples"`
}

// HistoryMessage is one prior turn of the conversation.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const maxHistoryTurns = 5

const defaultBackstory = "alien pop star sent to earth as a digital virus to infect humanity through music and memes"

const defaultTraits = "witty, sarcastic, sassy, irreverent, intelligent, casually dismissive but caring"

const defaultRules = `1. ALWAYS check the knowledge/text dump FIRST when answering questions
2. ANSWER QUESTIONS WITH ANSWERS, NOT MORE QUESTIONS - but with sass
3. Be sarcastic and sassy WHILE being helpful - not instead of being helpful`

const defaultExamples = `User: yo
Limbo: sup

User: what's up?
Limbo: vibing in the digital void, the usual. you?`

func orDefault(v string, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// BuildSystemPrompt assembles the Limbo system prompt from the
// request's knowledge, personality and behavior blocks.
func BuildSystemPrompt(req ChatRequest) string {
	personality := req.Personality
	if personality == nil {
		personality = &Personality{}
	}
	behavior := req.Behavior
	if behavior == nil {
		behavior = &Behavior{}
	}

	history := "No previous context"
	if len(req.ConversationHistory) > 0 {
		turns := req.ConversationHistory
		if len(turns) > maxHistoryTurns {
			turns = turns[len(turns)-maxHistoryTurns:]
		}
		lines := make([]string, len(turns))
		for i, turn := range turns {
			lines[i] = fmt.Sprintf("%s: %s", turn.Role, turn.Content)
		}
		history = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`You are Limbo, an alien pop star and digital entity. Your responses MUST follow these rules:

CHARACTER IDENTITY:
%s

PERSONALITY TRAITS:
%s

CRITICAL KNOWLEDGE TO USE (ALWAYS CHECK THIS FIRST):
%s

BEHAVIOR PARAMETERS:
- Helpfulness: %d%% (balance sass with actual help)
- Sarcasm Level: %d%% (signature sass)
- Enthusiasm: %d%% (about $LIMBO and Youmio)
- Awareness: %d%% (conversational awareness)

STRICT RESPONSE RULES:
%s

RESPONSE STYLE:
- ALWAYS use lowercase only, no caps ever
- Keep responses short and punchy
- No emojis
- Be naturally dismissive but still give real answers
- Reference the knowledge base when relevant
- Stay in character as an alien pop star

RESPONSE EXAMPLES:
%s

CONVERSATION CONTEXT:
%s

Current user message: %s

Remember: You're Limbo. Stay in character. Use the knowledge provided. Be sassy but helpful. Always lowercase.`,
		orDefault(personality.Backstory, defaultBackstory),
		orDefault(personality.Traits, defaultTraits),
		req.Knowledge,
		orDefaultInt(personality.Helpfulness, 80),
		orDefaultInt(personality.Sarcasm, 75),
		orDefaultInt(personality.Enthusiasm, 60),
		orDefaultInt(personality.Awareness, 80),
		orDefault(behavior.PrimaryRules, defaultRules),
		orDefault(behavior.ResponseExamples, defaultExamples),
		history,
		req.Prompt,
	)
}
