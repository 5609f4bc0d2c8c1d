package nodes

import (
	"context"
	"strings"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/template"
)

// Speech pacing used for playback duration estimates.
const wordsPerSecond = 2.5

const defaultVoiceID = "default"

// MessageExecutor resolves the node's text against the run variables and
// estimates how long the message takes to speak. It never fails: an empty or
// unresolvable template plays as-is.
type MessageExecutor struct{}

func NewMessageExecutor() *MessageExecutor {
	return &MessageExecutor{}
}

func (e *MessageExecutor) Type() models.NodeType {
	return models.NodeTypeMessage
}

func (e *MessageExecutor) Execute(_ context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error) {
	// "text" is accepted as a legacy alias for "message".
	text := node.StringData("message", node.StringData("text", ""))
	resolved := template.Resolve(text, ec.Variables)

	ec.SetVariable("last_message", resolved)

	return map[string]any{
		"action":            "message_sent",
		"message":           resolved,
		"voice_id":          node.StringData("voice_id", defaultVoiceID),
		"duration_estimate": estimateDuration(resolved),
		"success":           true,
	}, nil
}

// estimateDuration returns the estimated playback time in seconds, derived
// only from the resolved word count so identical messages always estimate
// identically.
func estimateDuration(message string) float64 {
	words := len(strings.Fields(message))
	if words == 0 {
		return 0
	}

	return float64(words) / wordsPerSecond
}
