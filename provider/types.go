// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package provider

// Workload describes one provisioned node as reported by the provider.
type Workload struct {
	// ID is the provider's workload identifier.
	ID string `json:"workload"`

	// Hostname is the node's public DNS name. Health checks are
	// performed against https://<Hostname>/.
	Hostname string `json:"node"`

	// Type is the workload flavor, e.g. "ollama_webui:fast".
	Type string `json:"type,omitempty"`

	// Expires is the unix timestamp when the paid lease runs out.
	Expires int64 `json:"expires,omitempty"`
}

// StopReceipt is the provider's acknowledgement of a stop request.
type StopReceipt struct {
	// Stopped is the unix timestamp at which the workload was halted.
	Stopped int64 `json:"stopped"`

	// RefundAmount is the credit returned for unused lease time.
	RefundAmount float64 `json:"refund_amount"`
}
