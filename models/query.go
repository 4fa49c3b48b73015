package models

// UserQuery is the immutable input to one run of the query pipeline. It is
// constructed per request and discarded once the pipeline returns.
type UserQuery struct {
	Text    string `json:"text"`
	Role    string `json:"role"`
	AgentID string `json:"agent_id,omitempty"`
}

// RoutingDecision is the structured verdict of the dispatcher: which agent
// (if any) should answer the query, and why.
type RoutingDecision struct {
	AgentID    string  `json:"agent_id"`
	AgentName  string  `json:"agent_name"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Routed reports whether the decision selected a concrete agent. An empty
// AgentID means the dispatcher found no suitable target.
func (d RoutingDecision) Routed() bool {
	return d.AgentID != ""
}

// AgentResponse is the specialist's unaudited draft answer together with the
// distinct source filenames that backed it.
type AgentResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	AgentName string   `json:"agent_name"`
}

// AuditResult is the auditor's structured verdict on a draft. FinalAnswer is
// always populated: the approved draft when IsSafe is true, otherwise the
// auditor's rewritten replacement, with Feedback explaining the correction.
type AuditResult struct {
	IsSafe      bool   `json:"is_safe"`
	FinalAnswer string `json:"final_answer"`
	Feedback    string `json:"feedback,omitempty"`
}

// SourceDocument is one retrieved chunk of text with its provenance metadata.
type SourceDocument struct {
	Text       string `json:"text"`
	FileID     string `json:"file_id"`
	SourceFile string `json:"source_file"`
}

// QueryResult is what ProcessQuery hands back to the API layer.
type QueryResult struct {
	FinalAnswer   string   `json:"final_answer"`
	AgentLabel    string   `json:"agent_label"`
	Sources       []string `json:"sources"`
	AuditFeedback string   `json:"audit_feedback,omitempty"`
}
