package models

// NodeType identifies one of the seven node kinds the engine can execute.
// The set is closed; the engine registry rejects anything else.
type NodeType string

const (
	NodeTypeStart        NodeType = "start"
	NodeTypeMessage      NodeType = "message"
	NodeTypeCondition    NodeType = "condition"
	NodeTypeAIResponse   NodeType = "ai_response"
	NodeTypeCollectInput NodeType = "collect_input"
	NodeTypeTransfer     NodeType = "transfer"
	NodeTypeEnd          NodeType = "end"
)

// NodeTypes lists every executable node type.
var NodeTypes = []NodeType{
	NodeTypeStart,
	NodeTypeMessage,
	NodeTypeCondition,
	NodeTypeAIResponse,
	NodeTypeCollectInput,
	NodeTypeTransfer,
	NodeTypeEnd,
}

// Node represents one typed unit of work in a flow. Data carries the
// type-specific configuration (message text, AI prompt, transfer number and
// so on) and is immutable during a run.
type Node struct {
	ID   string         `json:"id"   validate:"required"`
	Type NodeType       `json:"type" validate:"required"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// StringData returns the string value stored under key, or fallback when the
// key is absent or not a string.
func (n *Node) StringData(key, fallback string) string {
	if v, ok := n.Data[key].(string); ok {
		return v
	}

	return fallback
}

// IntData returns the integer value stored under key, accepting JSON float64
// decoding, or fallback.
func (n *Node) IntData(key string, fallback int) int {
	switch v := n.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// SliceData returns the slice value stored under key, or nil.
func (n *Node) SliceData(key string) []any {
	if v, ok := n.Data[key].([]any); ok {
		return v
	}

	return nil
}
