// Package observability provides the event log, metrics, sync health
// alerts, user-facing notices and the logrus logger for PlanWise. Events are
// persisted as JSON Lines and metrics are derived from them on demand.
package observability
