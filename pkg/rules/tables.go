package rules

import "github.com/phishzil/threatscan/pkg/threat"

// Rule tables per evidence channel.
//
// Two scoring modes exist:
//   - additive: every matching rule contributes its own Weight
//     (credential, authority, sms, greeting, url_host, sender_local)
//   - counted: the analyzer counts distinct matches against a threshold and
//     applies a single category weight (urgency, financial); those rules
//     carry Weight 0 here and the thresholds live in pkg/detect.

func (r *Registry) registerURLHostRules() {
	r.register("ip_literal", `^[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}$`,
		CategoryURLHost, 0.3, "", "Host is a bare IP address")
	r.register("hyphen_chain", `[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+`,
		CategoryURLHost, 0.3, "", "Hyphen-heavy host name")
	r.register("long_label", `[a-zA-Z]{20,}`,
		CategoryURLHost, 0.3, "", "Unusually long host label")
	r.register("url_shortener", `(?i)bit\.ly|tinyurl|t\.co|goo\.gl|short\.link`,
		CategoryURLHost, 0.3, "", "Known URL shortener host")
}

func (r *Registry) registerUrgencyRules() {
	patterns := []struct{ name, pattern string }{
		{"urgent", `(?i)urgent(ly)?`},
		{"immediate", `(?i)immediate(ly)?`},
		{"expire", `(?i)expire[sd]?`},
		{"suspend", `(?i)suspend(ed)?`},
		{"verify_now", `(?i)verify (now|immediately)`},
		{"act_now", `(?i)act (now|fast)`},
		{"limited_time", `(?i)limited time`},
		{"within_hours", `(?i)within \d+ hours?`},
		{"deadline", `(?i)deadline`},
		{"final_notice", `(?i)final (notice|warning)`},
	}
	for _, p := range patterns {
		r.register(p.name, p.pattern, CategoryUrgency, 0, "", "Urgency language detected")
	}
}

func (r *Registry) registerCredentialRules() {
	patterns := []struct{ name, pattern string }{
		{"verify_credentials", `(?i)(verify|confirm|update).*(password|account|credentials)`},
		{"click_to_login", `(?i)click here to (login|sign in|verify)`},
		{"suspended_account", `(?i)suspended.*(account|service)`},
		{"security_alert", `(?i)security (alert|warning|breach)`},
		{"unauthorized_access", `(?i)unauthorized (access|activity)`},
	}
	for _, p := range patterns {
		r.register(p.name, p.pattern, CategoryCredential, 0.7,
			threat.TagCredentialHarvesting, "Credential harvesting pattern: "+p.name)
	}
}

func (r *Registry) registerFinancialRules() {
	patterns := []struct{ name, pattern string }{
		{"windfall", `(?i)(won|prize|lottery|inheritance)`},
		{"transfer_money", `(?i)transfer.*money`},
		{"bank_details", `(?i)bank.*details`},
		{"wire_transfer", `(?i)wire transfer`},
		{"western_union", `(?i)western union`},
		{"advance_fee", `(?i)advance fee`},
		{"processing_fee", `(?i)processing fee`},
		{"tax_payment", `(?i)tax payment`},
	}
	for _, p := range patterns {
		r.register(p.name, p.pattern, CategoryFinancial, 0,
			threat.TagFinancialFraud, "Financial fraud indicators")
	}
}

func (r *Registry) registerAuthorityRules() {
	patterns := []struct{ name, pattern string }{
		{"it_support", `(?i)(IT|technical) (support|department|team)`},
		{"security_team", `(?i)(security|admin|administrator) (team|department)`},
		{"institution", `(?i)(bank|government|IRS|police)`},
		{"vendor_support", `(?i)(microsoft|google|apple) (support|security)`},
	}
	for _, p := range patterns {
		r.register(p.name, p.pattern, CategoryAuthority, 0.5,
			threat.TagAuthorityImpersonation, "Authority impersonation detected")
	}
}

func (r *Registry) registerSMSRules() {
	r.register("sms_click_verify", `(?i)click.*link.*verify`,
		CategorySMS, 0.7, threat.TagSMSPhishing, "SMS phishing pattern detected")
}

func (r *Registry) registerGreetingRules() {
	r.register("generic_greeting", `(?i)dear customer|dear user|dear sir/madam|valued customer`,
		CategoryGreeting, 0.2, "", "Generic greeting used")
}

func (r *Registry) registerSenderRules() {
	// letters followed by a 3+ digit run in the local part, e.g. security123@
	r.register("digit_run_local", `[a-z]{2,}[0-9]{3,}@`,
		CategorySenderLocal, 0.3, "", "Suspicious sender email pattern")
}
