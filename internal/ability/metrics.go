package ability

import "github.com/prometheus/client_golang/prometheus"

type DropReason string

const (
	DropEmpty             DropReason = "empty"
	DropMalformedCompany  DropReason = "malformed_company"
	DropUnknownPermission DropReason = "unknown_permission"
	DropUnrecognized      DropReason = "unrecognized"
)

var droppedEntries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "access_control",
		Subsystem: "ability",
		Name:      "dropped_entries_total",
		Help:      "Ability entries discarded while parsing, by reason.",
	},
	[]string{"reason"},
)

// Collectors exposes the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{droppedEntries}
}

// DroppedEntries returns the counter for one drop reason.
func DroppedEntries(reason DropReason) prometheus.Counter {
	return droppedEntries.WithLabelValues(string(reason))
}
