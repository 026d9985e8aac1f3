// Package config loads and validates the axiom-server YAML configuration:
// the HTTP surface, fleet-wide asset defaults, the monitored station list,
// and alert rules with webhook targets. Watch provides fsnotify-based hot
// reload so tariff and asset changes take effect without a restart.
package config
