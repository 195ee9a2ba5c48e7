package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Label values are drawn from small closed sets (outcome,
// reason, kind) so cardinality stays bounded.
var (
	// CodesExchanged counts code exchanges by outcome (ok|not_found|error).
	CodesExchanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_code_exchanges_total",
			Help: "Verification code exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	// Grants counts ledger inserts by source and whether a row was created.
	Grants = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_entitlement_grants_total",
			Help: "Entitlement grant attempts by source and result.",
		},
		[]string{"source", "result"},
	)

	// Deliveries counts delivery attempts by reason and outcome.
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Payload delivery attempts by reason and outcome.",
		},
		[]string{"reason", "outcome"},
	)

	// Broadcasts counts downtime broadcasts to the game backend by outcome.
	Broadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_downtime_broadcasts_total",
			Help: "Downtime broadcasts to the game backend by outcome.",
		},
		[]string{"outcome"},
	)

	// BotCommands counts chat commands by name and outcome.
	BotCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_bot_commands_total",
			Help: "Chat commands handled by command name and outcome.",
		},
		[]string{"command", "outcome"},
	)

	// BotOnline is 1 while the bot heartbeat is fresh.
	BotOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_bot_online",
			Help: "1 when the bot heartbeat is within the timeout, else 0.",
		},
	)
)

func init() {
	prometheus.MustRegister(CodesExchanged, Grants, Deliveries, Broadcasts, BotCommands, BotOnline)
}
