package service

import (
	"context"
	"encoding/json"
	"strings"

	"aura/backend/ai"
	"aura/backend/internal/models"
	"aura/backend/pkg/logger"
	"aura/backend/shared/observability"
)

const classifierInstruction = `You are a digital safety expert specializing in detecting online harassment, threats, and manipulation targeting women and girls. Analyze the given message and identify any concerning patterns.

Categories of threats to look for:
- harassment: Repeated unwanted contact, insults, or degrading language
- hate_speech: Discriminatory language based on gender, ethnicity, or other protected characteristics
- threat: Direct or implied threats of harm, violence, or exposure
- manipulation: Attempts to control, gaslight, or emotionally manipulate
- grooming: Patterns of building trust for exploitation, inappropriate requests
- doxxing: Attempts to gather or share personal information

Respond with JSON in this format:
{
  "isThreat": boolean,
  "type": "harassment" | "hate_speech" | "threat" | "manipulation" | "grooming" | "doxxing" | "none",
  "severity": "low" | "medium" | "high" | "critical",
  "analysis": "Brief explanation of the threat pattern detected",
  "recommendations": ["Array of safety recommendations"]
}`

const (
	analysisUnavailable = "AI analysis is not available. Please configure the OPENAI_API_KEY."
	analysisFailed      = "Unable to analyze message at this time."
)

// ThreatClassifier asks the LLM for a verdict on one message. It never writes
// storage and never fails: every problem degrades to a non-threat verdict.
type ThreatClassifier struct {
	provider ai.Provider
	metrics  *observability.Metrics
}

// NewThreatClassifier creates a classifier. A nil provider means no credential
// is configured.
func NewThreatClassifier(provider ai.Provider, metrics *observability.Metrics) *ThreatClassifier {
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &ThreatClassifier{provider: provider, metrics: metrics}
}

// Classify returns the verdict for message. The caller rejects empty input.
func (c *ThreatClassifier) Classify(ctx context.Context, message string) models.ThreatVerdict {
	log := logger.FromContext(ctx)

	if c.provider == nil {
		c.metrics.LLMCall(ctx, "classify", observability.OutcomeNoKey, 0)
		v := nonThreat(analysisUnavailable)
		v.Recommendations = []string{"Configure the OpenAI API key to enable threat detection"}
		return v
	}

	raw, err := c.provider.Complete(ctx, ai.Request{
		Operation: "classify",
		System:    classifierInstruction,
		Messages:  []ai.Message{{Role: ai.RoleUser, Content: message}},
		JSON:      true,
	})
	if err != nil {
		log.Warn("Threat classification failed", "error", err.Error())
		return nonThreat(analysisFailed)
	}

	result := parseVerdict(raw)
	if result.fallbackReason != "" {
		c.metrics.BadResponse(ctx, "classify")
		log.Warn("Classifier response needed defaults",
			"reason", result.fallbackReason,
			"response_chars", len(raw),
		)
	}
	return result.verdict
}

func nonThreat(analysis string) models.ThreatVerdict {
	return models.ThreatVerdict{
		IsThreat:        false,
		Type:            models.ThreatNone,
		Severity:        models.SeverityLow,
		Analysis:        analysis,
		Recommendations: []string{},
	}
}

// verdictResult is the outcome of decoding one model response. fallbackReason
// is empty when every field came from the model.
type verdictResult struct {
	verdict        models.ThreatVerdict
	fallbackReason string
}

// parseVerdict decodes the model output once. Fields that are missing, of the
// wrong JSON type or outside their enum are replaced one by one.
func parseVerdict(raw string) verdictResult {
	res := verdictResult{verdict: nonThreat("")}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &fields); err != nil || fields == nil {
		res.fallbackReason = "invalid json"
		return res
	}

	var defaulted []string
	note := func(name string) { defaulted = append(defaulted, name) }

	var isThreat bool
	if decodeField(fields, "isThreat", &isThreat) {
		res.verdict.IsThreat = isThreat
	} else {
		note("isThreat")
	}

	var threatType string
	if decodeField(fields, "type", &threatType) && models.ThreatType(threatType).Valid() {
		res.verdict.Type = models.ThreatType(threatType)
	} else {
		note("type")
	}

	var severity string
	if decodeField(fields, "severity", &severity) && models.Severity(severity).Valid() {
		res.verdict.Severity = models.Severity(severity)
	} else {
		note("severity")
	}

	var analysis string
	if decodeField(fields, "analysis", &analysis) {
		res.verdict.Analysis = analysis
	} else {
		note("analysis")
	}

	var recs []string
	if decodeField(fields, "recommendations", &recs) && recs != nil {
		res.verdict.Recommendations = recs
	} else {
		note("recommendations")
	}

	if len(defaulted) > 0 {
		res.fallbackReason = "defaulted " + strings.Join(defaulted, ",")
	}
	return res
}

func decodeField(fields map[string]json.RawMessage, name string, dst any) bool {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
