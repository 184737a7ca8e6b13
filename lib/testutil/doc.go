// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers. The Require functions
// wrap channel operations with a real-time timeout so that a test that
// would otherwise deadlock fails with a message instead of hanging the
// whole run.
package testutil
