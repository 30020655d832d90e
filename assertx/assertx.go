// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package assertx

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

type tHelper interface {
	Helper()
}

// Equal compares with go-cmp so options such as cmpopts.IgnoreFields apply.
func Equal(t assert.TestingT, expected interface{}, actual interface{}, opts ...cmp.Option) (ok bool) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !cmp.Equal(expected, actual, opts...) {
		return assert.Fail(t, "Not equal: \n"+cmp.Diff(expected, actual, opts...))
	}

	return true
}

// NDJSONEq compares newline delimited JSON line by line, ignoring the sjson
// paths in except on every line.
func NDJSONEq(t require.TestingT, expected []string, actual []byte, except ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	lines := strings.Split(strings.TrimSuffix(string(actual), "\n"), "\n")
	if !assert.Len(t, lines, len(expected), string(actual)) {
		return false
	}

	ok := true
	for i := range expected {
		e, a := expected[i], lines[i]
		for _, k := range except {
			var err error
			e, err = sjson.Delete(e, k)
			require.NoError(t, err)
			a, err = sjson.Delete(a, k)
			require.NoError(t, err)
		}
		ok = assert.JSONEq(t, e, a, "line %d", i) && ok
	}
	return ok
}
