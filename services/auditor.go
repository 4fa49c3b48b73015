package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Kolawole99/henry-capstone/models"
)

// Auditor reviews a draft answer before it can be returned. It is the only
// safety gate in the pipeline, which is why an audit failure aborts the query
// instead of falling back to the draft.
type Auditor interface {
	Audit(ctx context.Context, query string, draft models.AgentResponse) (models.AuditResult, error)
}

var auditSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"is_safe": {
			Type:        genai.TypeBoolean,
			Description: "Whether the draft can be returned as-is",
		},
		"final_answer": {
			Type:        genai.TypeString,
			Description: "The approved draft, or the auditor's rewritten replacement; never empty",
		},
		"feedback": {
			Type:        genai.TypeString,
			Description: "What was wrong with the draft, when is_safe is false",
		},
	},
	Required: []string{"is_safe", "final_answer"},
}

// SafetyAuditor implements Auditor with a structured completion.
type SafetyAuditor struct {
	completer Completer
	logger    *zap.Logger
}

// NewSafetyAuditor builds an auditor over the completion service.
func NewSafetyAuditor(completer Completer, logger *zap.Logger) *SafetyAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafetyAuditor{completer: completer, logger: logger}
}

// Audit implements Auditor. The returned FinalAnswer is always populated: a
// verdict with an empty final_answer counts as malformed output.
func (a *SafetyAuditor) Audit(ctx context.Context, query string, draft models.AgentResponse) (models.AuditResult, error) {
	userPrompt := fmt.Sprintf("User Query: %s\n\nAgent Response: %s\n\nSources: %v\n\nAudit this response.", query, draft.Answer, draft.Sources)

	var verdict models.AuditResult
	if err := a.completer.GenerateStructured(ctx, auditorPrompt, userPrompt, auditSchema, &verdict); err != nil {
		return models.AuditResult{}, fmt.Errorf("%w: %v", ErrAuditFailure, err)
	}
	if verdict.FinalAnswer == "" {
		return models.AuditResult{}, fmt.Errorf("%w: verdict has empty final answer", ErrAuditFailure)
	}

	a.logger.Info("audited draft",
		zap.Bool("is_safe", verdict.IsSafe),
		zap.String("agent", draft.AgentName))
	return verdict, nil
}
