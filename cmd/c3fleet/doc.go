// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

// c3fleet provisions and supervises a fleet of Comput3 compute nodes.
//
// The binary launches the requested number of workloads, health-checks
// each node on a fixed interval, and — with --keep-running — replaces
// nodes that fail three consecutive checks or vanish from the
// provider's workload listing. On SIGINT or SIGTERM it stops every
// workload it still tracks, unless --no-rm leaves the fleet running.
//
// Configuration layers, lowest to highest precedence: built-in
// defaults, the --config YAML file, environment variables (C3_API_KEY,
// WORKLOAD_POLL, C3FLEET_DEBUG, with a .env file honored), and
// explicit command-line flags. The provider credential comes from the
// environment only; it has no config-file key and never appears in
// logs.
//
// Optional integrations: --metrics-addr serves Prometheus metrics with
// liveness and readiness probes, and --events-url publishes node
// lifecycle events to NATS.
package main
