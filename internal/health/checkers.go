// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
)

// FuncChecker adapts a function to Checker.
type FuncChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewFuncChecker creates a checker named name that calls fn.
func NewFuncChecker(name string, fn func(ctx context.Context) CheckResult) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// FileChecker checks that a file exists and is non-empty.
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string {
	return c.name
}

func (c *FileChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: StatusUnhealthy, Error: "file not found", Message: c.path}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	}
	if info.Size() == 0 {
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}

// PingChecker reports a dependency as unhealthy when ping fails.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingChecker wraps a ping function such as a Redis HealthCheck.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// CountChecker is degraded while count returns zero. It is used for "catalogue
// has sources" and "an M8 model is loaded" style checks.
type CountChecker struct {
	name  string
	what  string
	count func() int
}

// NewCountChecker creates a CountChecker describing what is counted.
func NewCountChecker(name, what string, count func() int) *CountChecker {
	return &CountChecker{name: name, what: what, count: count}
}

func (c *CountChecker) Name() string { return c.name }

func (c *CountChecker) Check(_ context.Context) CheckResult {
	n := c.count()
	if n <= 0 {
		return CheckResult{Status: StatusDegraded, Message: "no " + c.what}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d %s", n, c.what)}
}
