package homework

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/llm"
)

// chatTitle is the JSON shape the model is asked to return.
type chatTitle struct {
	ChatName string `json:"chatName" jsonschema:"title=Chat name,description=A short title for the conversation,minLength=1,maxLength=60"`
}

// titleSchema is reflected once from chatTitle.
var titleSchema = func() string {
	reflector := jsonschema.Reflector{DoNotReference: true}
	data, err := json.Marshal(reflector.Reflect(&chatTitle{}))
	if err != nil {
		panic(fmt.Sprintf("homework: reflecting chat title schema: %v", err))
	}
	return string(data)
}()

// Namer titles chats.
type Namer struct {
	model llm.Completer
}

// NewNamer creates a Namer.
func NewNamer(model llm.Completer) *Namer {
	return &Namer{model: model}
}

// Name returns a short title for the session. Output that is not a JSON
// object with a non-empty chatName is a model call error.
func (n *Namer) Name(ctx context.Context, language string, s conversation.Session) (string, error) {
	if len(s.History) == 0 {
		return "", apperr.Errorf(apperr.KindInvalidSession, "homework.name", "history is empty")
	}
	out, err := n.model.Complete(ctx, llm.Request{
		Task:   TaskName,
		System: namePrompt(language, titleSchema, s),
	})
	if err != nil {
		return "", apperr.Ensure(apperr.KindModelCall, "homework.name", err)
	}
	name, err := parseTitle(out)
	if err != nil {
		return "", apperr.New(apperr.KindModelCall, "homework.name", err)
	}
	return name, nil
}

// parseTitle accepts the object bare or wrapped in prose or code fences.
func parseTitle(out string) (string, error) {
	start := strings.IndexByte(out, '{')
	end := strings.LastIndexByte(out, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in reply %q", out)
	}
	var t chatTitle
	if err := json.Unmarshal([]byte(out[start:end+1]), &t); err != nil {
		return "", fmt.Errorf("decoding chat name: %w", err)
	}
	name := strings.TrimSpace(t.ChatName)
	if name == "" {
		return "", fmt.Errorf("reply has an empty chatName")
	}
	return name, nil
}
