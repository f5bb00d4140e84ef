package rules

import "github.com/safepush/safepush/internal/types"

// sensitiveContext gates the context-aware rules: the line must mention a
// credential-ish keyword before a high-entropy value is worth flagging.
const sensitiveContext = `(?i)(key|secret|token|password|passwd|pwd|credential|jwt|auth)`

// CanaryID is the rule that matches planted canary tokens. Findings under
// this id trigger the webhook alert path.
const CanaryID = "canary-token"

// builtinRules is the default rule table. IDs are stable: baselines and
// severity overrides refer to them, so renaming one is a breaking change.
var builtinRules = []Rule{
	mustRule(Rule{
		ID:          "aws-access-key-id",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "AWS access key ID",
		Pattern:     `\bAKIA[0-9A-Z]{16}\b`,
	}),
	mustRule(Rule{
		ID:          "aws-secret-access-key",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "AWS secret access key assignment",
		Pattern:     `(?i)aws_?secret_?access_?key\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`,
		Validator:   "base64",
	}),
	mustRule(Rule{
		ID:          "private-key-block",
		Category:    CatSecretPattern,
		Severity:    types.SevCritical,
		Description: "PEM private key block",
		Pattern:     `-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`,
	}),
	mustRule(Rule{
		ID:          "stripe-secret-key",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "Stripe live secret key",
		Pattern:     `\bsk_live_[0-9a-zA-Z]{24,}\b`,
	}),
	mustRule(Rule{
		ID:          "github-token",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "GitHub personal access token",
		Pattern:     `\bgh[oprsu]_[A-Za-z0-9]{36}\b`,
	}),
	mustRule(Rule{
		ID:          "slack-token",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "Slack token",
		Pattern:     `\bxox[baprs]-[A-Za-z0-9-]{10,48}\b`,
	}),
	mustRule(Rule{
		ID:          "twilio-api-key",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "Twilio API key SID",
		Pattern:     `\bSK[0-9a-fA-F]{32}\b`,
	}),
	mustRule(Rule{
		ID:          "google-api-key",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "Google API key",
		Pattern:     `\bAIza[0-9A-Za-z\-_]{35}\b`,
	}),
	mustRule(Rule{
		ID:          "azure-servicebus-connection",
		Category:    CatSecretPattern,
		Severity:    types.SevHigh,
		Description: "Azure Service Bus connection string",
		Pattern:     `Endpoint=sb://[^\s;]+;SharedAccessKeyName=[^\s;]+;SharedAccessKey=([A-Za-z0-9+/=]{20,})`,
	}),
	mustRule(Rule{
		ID:          "jwt-token",
		Category:    CatSecretPattern,
		Severity:    types.SevMed,
		Description: "JSON Web Token",
		Pattern:     `\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9._-]{10,}`,
		Validator:   "jwt",
	}),
	mustRule(Rule{
		ID:          CanaryID,
		Category:    CatSecretPattern,
		Severity:    types.SevCritical,
		Description: "Planted canary token",
		Pattern:     `\bSAFEPUSH_CANARY_[A-Z0-9]{8,}\b`,
	}),
	mustRule(Rule{
		ID:          "sensitive-assignment",
		Category:    CatSecretPattern,
		Severity:    types.SevMed,
		Description: "Suspicious value in sensitive context",
		Pattern:     `(?i)\b(?:key|secret|token|password|passwd|pwd|auth)[A-Za-z0-9_]*\s*[:=]\s*["']([^\s"']{8,})["']`,
	}),

	mustRule(Rule{
		ID:          "tls-verify-disabled",
		Category:    CatUnsafeConstruct,
		Severity:    types.SevMed,
		Description: "TLS certificate verification disabled",
		Pattern:     `(?i)(verify\s*=\s*False|InsecureSkipVerify\s*:\s*true|rejectUnauthorized\s*:\s*false|CURLOPT_SSL_VERIFYPEER\s*,\s*(?:0|false))`,
	}),
	mustRule(Rule{
		ID:          "debug-enabled",
		Category:    CatUnsafeConstruct,
		Severity:    types.SevLow,
		Description: "Debug mode switched on",
		Pattern:     `\bDEBUG\s*=\s*True\b`,
		AppliesTo:   []string{"*.py"},
	}),
	mustRule(Rule{
		ID:          "wildcard-cors",
		Category:    CatUnsafeConstruct,
		Severity:    types.SevLow,
		Description: "Wildcard CORS origin",
		Pattern:     `(?i)Access-Control-Allow-Origin['"\s:=,()]+\*`,
	}),

	mustRule(Rule{
		ID:          "entropy-keyed-strong",
		Category:    CatEntropyThreshold,
		Severity:    types.SevHigh,
		Description: "High-entropy value in sensitive context",
		Threshold:   4.0,
		Window:      20,
		MinLength:   24,
		Context:     sensitiveContext,
	}),
	mustRule(Rule{
		ID:          "entropy-bare-strong",
		Category:    CatEntropyThreshold,
		Severity:    types.SevMed,
		Description: "Suspicious high-entropy value",
		Threshold:   4.2,
		Window:      20,
		MinLength:   24,
	}),
	mustRule(Rule{
		ID:          "entropy-bare-moderate",
		Category:    CatEntropyThreshold,
		Severity:    types.SevLow,
		Description: "Possible random value",
		Threshold:   3.6,
		Window:      16,
		MinLength:   16,
	}),
}

// BuiltinIDs returns the ids of the default table in registry order.
func BuiltinIDs() []string {
	ids := make([]string, 0, len(builtinRules))
	for _, r := range builtinRules {
		ids = append(ids, r.ID)
	}
	return ids
}
