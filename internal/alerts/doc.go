// Package alerts evaluates per-asset rules against each new snapshot and
// delivers webhook notifications to Slack, Teams or generic HTTP targets
// when an alert fires or resolves.
package alerts
