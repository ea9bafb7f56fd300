package models

import "encoding/json"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the conversation of one interactive session. It lives only
// as long as the session and is never written to disk.
type Transcript struct {
	turns []Turn
}

func (t *Transcript) Append(role Role, text string) {
	t.turns = append(t.turns, Turn{Role: role, Text: text})
}

// Turns returns a copy of the conversation in order.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) Len() int { return len(t.turns) }

// MarshalJSON lets a transcript ride inside a session value.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	if t.turns == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.turns)
}

func (t *Transcript) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.turns)
}
