package models

// AnalysisInput is the payload of the async analysis workflow
type AnalysisInput struct {
	ProjectID    string `json:"project_id"`
	UserID       string `json:"user_id"`
	Requirements string `json:"requirements"`
	Kind         string `json:"kind"`
	Notation     string `json:"notation,omitempty"`
}

// AnalysisOutput is the result of the async analysis workflow
type AnalysisOutput struct {
	ProjectID string `json:"project_id"`
	DiagramID string `json:"diagram_id"`
	Degraded  bool   `json:"degraded"`
	Patterns  int    `json:"patterns"`
}
