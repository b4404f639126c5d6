// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	t.Setenv("AWARE_TEST_STR", "value")
	assert.Equal(t, "value", ParseString("AWARE_TEST_STR", "def"))

	t.Setenv("AWARE_TEST_STR", "")
	assert.Equal(t, "def", ParseString("AWARE_TEST_STR", "def"))
	assert.Equal(t, "def", ParseString("AWARE_TEST_UNSET_STR", "def"))
}

func TestParseInt(t *testing.T) {
	t.Setenv("AWARE_TEST_INT", " 42 ")
	assert.Equal(t, 42, ParseInt("AWARE_TEST_INT", 1))

	t.Setenv("AWARE_TEST_INT", "forty")
	assert.Equal(t, 1, ParseInt("AWARE_TEST_INT", 1))
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "YES": true, "1": true, "false": false, "no": false, "0": false} {
		t.Setenv("AWARE_TEST_BOOL", in)
		assert.Equal(t, want, ParseBool("AWARE_TEST_BOOL", !want), in)
	}
	t.Setenv("AWARE_TEST_BOOL", "maybe")
	assert.True(t, ParseBool("AWARE_TEST_BOOL", true))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("AWARE_TEST_DUR", "250ms")
	assert.Equal(t, 250*time.Millisecond, ParseDuration("AWARE_TEST_DUR", time.Second))

	t.Setenv("AWARE_TEST_DUR", "10")
	assert.Equal(t, time.Second, ParseDuration("AWARE_TEST_DUR", time.Second))
}

func TestParseFloat(t *testing.T) {
	t.Setenv("AWARE_TEST_FLOAT", "0.25")
	assert.InDelta(t, 0.25, ParseFloat("AWARE_TEST_FLOAT", 1), 1e-9)

	t.Setenv("AWARE_TEST_FLOAT", "x")
	assert.InDelta(t, 1.0, ParseFloat("AWARE_TEST_FLOAT", 1), 1e-9)
}
