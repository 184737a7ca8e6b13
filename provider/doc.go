// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements the Comput3 API client.
//
// The client covers the three control-plane operations the supervisor
// needs — launching a workload, stopping a workload, and listing the
// workloads currently running — plus the data-plane health probe
// against a provisioned node's own hostname.
//
// All methods take a context and return explicit errors. Non-2xx
// control-plane responses surface as *APIError so callers can inspect
// the HTTP status with errors.As.
package provider
