package llm

// Chat roles understood by OpenAI-compatible servers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat prompt. The answer formatter sends a
// system turn with its rules and a user turn carrying the question, the
// validated answer and the evidence lines.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// prompt builds the two-turn conversation used for one-shot rewriting.
func prompt(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// ChatParams overrides per-call settings of a chat completion.
type ChatParams struct {
	// Model replaces the client's model when set.
	Model string

	// MaxTokens bounds the reply length; 0 leaves it to the server.
	MaxTokens int

	// Temperature is always sent, so the zero value asks for a
	// deterministic reply.
	Temperature float32
}
