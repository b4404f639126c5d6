// SPDX-License-Identifier: MIT

package m8

import "errors"

var (
	ErrMalformed          = errors.New("m8: malformed json document")
	ErrNotObject          = errors.New("m8: expected json object")
	ErrMissingServiceList = errors.New("m8: document has no service list")
	ErrInvalidArray       = errors.New("m8: expected json array")
)
