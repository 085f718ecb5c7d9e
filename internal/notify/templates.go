// internal/notify/templates.go
package notify

import (
	"fmt"
	"strings"
)

// Notification types
const (
	TypePrequalified  = "prequalified"
	TypeRejected      = "rejected"
	TypeManualReview  = "manual_review"
	TypeFunded        = "funded"
	TypeFundingFailed = "funding_failed"
)

type template struct {
	Subject string
	Body    string
}

var templates = map[string]template{
	TypePrequalified: {
		Subject: "Your loan application {{applicationId}} is pre-qualified",
		Body:    "Dear {{applicantName}}, you are pre-qualified for up to Rs. {{amount}}. Use application {{applicationId}} to continue.",
	},
	TypeRejected: {
		Subject: "Update on your loan application {{applicationId}}",
		Body:    "Dear {{applicantName}}, we are unable to proceed with application {{applicationId}} at {{stage}}: {{reason}}",
	},
	TypeManualReview: {
		Subject: "Your loan application {{applicationId}} is under review",
		Body:    "Dear {{applicantName}}, application {{applicationId}} needs a manual review at {{stage}}. We will contact you shortly.",
	},
	TypeFunded: {
		Subject: "Your loan {{applicationId}} has been disbursed",
		Body:    "Dear {{applicantName}}, Rs. {{amount}} has been disbursed for application {{applicationId}}. Reference {{reference}}.",
	},
	TypeFundingFailed: {
		Subject: "Disbursement pending for loan {{applicationId}}",
		Body:    "Dear {{applicantName}}, disbursement for application {{applicationId}} could not be completed: {{reason}}. We will retry.",
	},
}

// renderTemplate substitutes {{key}} placeholders and drops any left unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case float64:
			value = fmt.Sprintf("%.0f", t)
		case nil:
		default:
			value = fmt.Sprintf("%v", t)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
