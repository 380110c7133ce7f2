package drift

import (
	"fmt"
	"strings"
)

// RuleConfig holds the tenant-configurable inputs the five rules consult.
// Defaults match spec §4.4; an operator may override per tenant via config.
type RuleConfig struct {
	SensitiveTargets map[string]struct{}
	Gateways         map[string]struct{}
	// OwnerOf maps a database node name to the service name that owns it.
	OwnerOf map[string]string
}

// DefaultRuleConfig returns the built-in defaults named in spec §4.4,
// matching original_source's SENSITIVE_SERVICES/GATEWAY_SERVICES/DB_OWNER.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		SensitiveTargets: toSet("payments-db", "users-db", "orders-db", "auth-svc"),
		Gateways:         toSet("api-gateway"),
		OwnerOf: map[string]string{
			"payments-db": "payment-svc",
			"users-db":    "user-svc",
			"orders-db":   "order-svc",
		},
	}
}

func toSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Triggered is one rule's verdict on an event: whether it fired, its boost,
// and the human-readable reason the explainer concatenates.
type Triggered struct {
	Rule   string
	Boost  int
	Reason string
}

type rule struct {
	name    string
	matches func(cfg RuleConfig, e Event) bool
	boost   int
	reason  func(e Event) string
}

var ruleTable = []rule{
	{
		name: "sensitive_target",
		matches: func(cfg RuleConfig, e Event) bool {
			_, ok := cfg.SensitiveTargets[e.Destination]
			return ok
		},
		boost:  30,
		reason: func(e Event) string { return fmt.Sprintf("connection to sensitive %s", e.Destination) },
	},
	{
		name: "bypass_gateway",
		matches: func(cfg RuleConfig, e Event) bool {
			if e.EventType != NewEdge {
				return false
			}
			if _, ok := cfg.Gateways[e.Source]; ok {
				return false
			}
			return stripSuffix(e.Source, "-svc") != stripSuffix(e.Destination, "-db")
		},
		boost:  20,
		reason: func(e Event) string { return "direct connection bypassing gateway" },
	},
	{
		name: "database_direct_access",
		matches: func(cfg RuleConfig, e Event) bool {
			if !strings.Contains(e.Destination, "-db") {
				return false
			}
			owner, known := cfg.OwnerOf[e.Destination]
			return known && owner != e.Source
		},
		boost:  30,
		reason: func(e Event) string { return "unexpected service accesses owned DB" },
	},
	{
		name: "high_error_rate",
		matches: func(cfg RuleConfig, e Event) bool {
			return e.EventType == ErrorSpike && e.Details.CurrentValue > 0.10
		},
		boost:  20,
		reason: func(e Event) string { return "error rate above 10%" },
	},
	{
		name: "blast_radius",
		matches: func(cfg RuleConfig, e Event) bool {
			return e.EventType == BlastRadiusIncrease
		},
		boost:  15,
		reason: func(e Event) string { return fmt.Sprintf("attack surface of %s grew", e.Source) },
	},
}

// stripSuffix trims every occurrence of suffix from s, matching Python's
// str.replace rather than a strict suffix-only trim — confirmed against
// the original rule_bypass_gateway, which does the same substring removal.
func stripSuffix(s, suffix string) string {
	return strings.ReplaceAll(s, suffix, "")
}

// Evaluate returns the rules that triggered for e, in declaration order.
func Evaluate(cfg RuleConfig, e Event) []Triggered {
	var out []Triggered
	for _, r := range ruleTable {
		if r.matches(cfg, e) {
			out = append(out, Triggered{Rule: r.name, Boost: r.boost, Reason: r.reason(e)})
		}
	}
	return out
}
