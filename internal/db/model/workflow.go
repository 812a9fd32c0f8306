package model

const WorkflowLibraryCollection = "workflow_library"

type WorkflowStep struct {
	Id     string                 `bson:"id" json:"id"`
	Type   string                 `bson:"type" json:"type"`
	Action string                 `bson:"action" json:"action"`
	Params map[string]interface{} `bson:"params" json:"params"`
	Output string                 `bson:"output,omitempty" json:"output,omitempty"`
}

type WorkflowDefinition struct {
	Steps []WorkflowStep `bson:"steps" json:"steps"`
}

// WorkflowDocument is a workflow definition in the shared registry, keyed by
// name and version.
type WorkflowDocument struct {
	Id       string             `bson:"_id"`
	Name     string             `bson:"name"`
	Version  string             `bson:"version"`
	Category string             `bson:"category"`
	Workflow WorkflowDefinition `bson:"workflow"`
}
