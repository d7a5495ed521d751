// Package manager is the conversion dispatcher. It owns one worker
// supervisor per enabled kind and routes each conversion either to the
// local arithmetic or to the matching worker. Files by concern:
//
//   - manager.go: Manager type, lifecycle (Start/StopAll), readiness.
//   - config.go: ManagerConfig and package defaults.
//   - convert.go: validation and the Convert entry point.
//   - status_report.go: Status, Units and History views.
//   - metrics.go: conversion counters and latency histogram.
//
// Requests are never retried and never fall back to local mode.
package manager
