// SPDX-License-Identifier: MIT

// Package m8 holds the M8 service-discovery model and the tree-walking parser
// that builds it from a JSON document.
//
// Two document shapes are understood. The current one carries m5BaseUrl and a
// serviceList of entries with entryPoints; the legacy one carries m5Url and a
// serviceAccessInformation list whose items expose a single media player entry.
package m8
