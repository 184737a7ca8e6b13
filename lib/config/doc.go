// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the c3fleet
// supervisor.
//
// Configuration is layered: built-in defaults, then an optional YAML
// file (--config), then environment variables, then command-line
// flags. Each layer only overrides what it explicitly sets, so a flag
// left at its default does not mask a file or environment value.
//
// The provider credential (C3_API_KEY) is environment-only and is
// never read from the config file, keeping secrets out of on-disk
// configuration. A .env file in the working directory is honored for
// development convenience; real environment variables win over it.
package config
