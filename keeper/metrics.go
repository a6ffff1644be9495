package keeper

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricCurrentRound = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "current_round",
		Help:      "Id of the round the keeper is driving.",
	})
	metricDrawCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "draw_count",
		Help:      "Numbers drawn so far in the current round.",
	})
	metricRoundPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "round_players",
		Help:      "Participants of the current round.",
	})
	metricSignerBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "signer_balance",
		Help:      "Signer account balance in natural units.",
	})
	metricSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "submissions_total",
		Help:      "Operations sent to the ledger.",
	}, []string{"kind"})
	metricConfirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "confirmations_total",
		Help:      "Operations the ledger confirmed.",
	}, []string{"kind"})
	metricReplacements = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "replacements_total",
		Help:      "Same-sequence resubmissions with escalated gas price.",
	})
	metricStaleDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "stale_drops_total",
		Help:      "Submissions dropped because the action no longer applied.",
	})
	metricWatchdogFirings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "watchdog_firings_total",
		Help:      "Forced actions after progress stalled.",
	})
	metricIllegalStates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "illegal_states_total",
		Help:      "Divergences between the local plan and ledger truth.",
	})
	metricRoundsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "rounds_resolved_total",
		Help:      "Rounds observed reaching a payout.",
	})
	metricEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "events_total",
		Help:      "Ledger notifications received.",
	}, []string{"kind"})
	metricFatalErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "fatal_errors_total",
		Help:      "Submissions the signer could not pay for.",
	})
	metricSequenceResyncs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bingo",
		Subsystem: "keeper",
		Name:      "sequence_resyncs_total",
		Help:      "Times the sequence cursor was re-read from the ledger.",
	})
)

func init() {
	prometheus.MustRegister(
		metricCurrentRound,
		metricDrawCount,
		metricRoundPlayers,
		metricSignerBalance,
		metricSubmissions,
		metricConfirmations,
		metricReplacements,
		metricStaleDrops,
		metricWatchdogFirings,
		metricIllegalStates,
		metricRoundsResolved,
		metricEvents,
		metricFatalErrors,
		metricSequenceResyncs,
	)
}
