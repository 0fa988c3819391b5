package vapi

// AssistantRequest is the payload for provisioning a new assistant.
// The model and voice blocks are fixed; callers supply the name, the
// greeting, the system prompt and the ordered knowledge file ids.
type AssistantRequest struct {
	Name         string `json:"name"`
	FirstMessage string `json:"firstMessage"`
	Model        Model  `json:"model"`
	Voice        Voice  `json:"voice"`
}

type Model struct {
	Provider      string        `json:"provider"`
	Model         string        `json:"model"`
	KnowledgeBase KnowledgeBase `json:"knowledgeBase"`
	Messages      []Message     `json:"messages"`
}

type KnowledgeBase struct {
	Provider string   `json:"provider"`
	FileIDs  []string `json:"fileIds"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Voice struct {
	Provider        string  `json:"provider"`
	VoiceID         string  `json:"voiceId"`
	Model           string  `json:"model"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarityBoost"`
}

// NewAssistantRequest fills in the fixed model/voice configuration
// around the caller-supplied fields. fileIDs order is preserved.
func NewAssistantRequest(name, firstMessage, systemPrompt string, fileIDs []string) AssistantRequest {
	return AssistantRequest{
		Name:         name,
		FirstMessage: firstMessage,
		Model: Model{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			KnowledgeBase: KnowledgeBase{
				Provider: "google",
				FileIDs:  fileIDs,
			},
			Messages: []Message{
				{Role: "system", Content: systemPrompt},
			},
		},
		Voice: Voice{
			Provider:        "11labs",
			VoiceID:         "cgSgspJ2msm6clMCkdW9",
			Model:           "eleven_turbo_v2_5",
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}
}

// Assistant is the platform's assistant descriptor, relayed as-is.
type Assistant map[string]any

// ID returns the remote assistant id, or "" if the descriptor has none.
func (a Assistant) ID() string {
	id, _ := a["id"].(string)
	return id
}

// Call is the platform's call descriptor, relayed as-is.
type Call map[string]any

// Phone is the platform's phone-number descriptor, relayed as-is.
type Phone map[string]any
