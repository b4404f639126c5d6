// SPDX-License-Identifier: MIT

// Package metrics registers the Prometheus collectors exported by awareapp.
// All collectors live in the default registry and are served by promhttp.
package metrics
