package client

const WorkflowExecutionType string = "workflow_execution"

type WorkflowRef struct {
	Id         string      `json:"id"`
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	Definition interface{} `json:"definition"`
}

type MessageMetadata struct {
	Source    string `json:"source"`
	UserId    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// WorkflowExecutionMessage is the envelope handed to the external workflow
// engine. The engine reports the submitted transaction hash back through the
// transaction callback endpoint; no synchronous result flows back here.
type WorkflowExecutionMessage struct {
	Type          string                 `json:"type"` // always workflow_execution
	RequestId     string                 `json:"requestId"`
	CorrelationId string                 `json:"correlationId"`
	Workflow      WorkflowRef            `json:"workflow"`
	Parameters    map[string]interface{} `json:"parameters"`
	Metadata      MessageMetadata        `json:"metadata"`
}
