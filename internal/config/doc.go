// SPDX-License-Identifier: MIT

// Package config provides configuration management for awareapp.
//
// Precedence is ENV > file > defaults. The YAML file is parsed strictly:
// unknown keys and trailing documents are rejected.
package config
