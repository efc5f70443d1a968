// Copyright 2025 RPKI-viz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
)

type testErrType struct {
	msg string
}

func (e *testErrType) Error() string {
	return e.msg
}

type testToTempErr struct {
	msg       string
	timeout   bool
	temporary bool
	cause     error
}

func (e *testToTempErr) Error() string {
	return e.msg
}

func (e *testToTempErr) Timeout() bool {
	return e.timeout
}

func (e *testToTempErr) Temporary() bool {
	return e.temporary
}

func (e *testToTempErr) Unwrap() error {
	return e.cause
}

func TestIsTimeout(t *testing.T) {
	err := serrors.New("no timeout")
	assert.False(t, serrors.IsTimeout(err))
	wrappedErr := serrors.Wrap("timeout",
		&testToTempErr{msg: "to", timeout: true})
	assert.True(t, serrors.IsTimeout(wrappedErr))
	noTimeoutWrappingTimeout := serrors.Wrap("notimeout", &testToTempErr{
		msg:     "non timeout wraps timeout",
		timeout: false,
		cause:   &testToTempErr{msg: "timeout", timeout: true},
	})
	assert.False(t, serrors.IsTimeout(noTimeoutWrappingTimeout))
}

func TestIsTemporary(t *testing.T) {
	err := serrors.New("not temp")
	assert.False(t, serrors.IsTemporary(err))
	wrappedErr := serrors.Wrap("temp",
		&testToTempErr{msg: "to", temporary: true})
	assert.True(t, serrors.IsTemporary(wrappedErr))
}

func TestWrap(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		errWithCtx := serrors.Wrap("error", err, "someCtx", "someValue")
		assert.ErrorIs(t, errWithCtx, err)
		assert.ErrorIs(t, errWithCtx, errWithCtx)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		errWithCtx := serrors.Wrap("error", err, "someCtx", "someVal")
		var errAs *testErrType
		require.True(t, errors.As(errWithCtx, &errAs))
		assert.Equal(t, err, errAs)
	})
	t.Run("Error contains context", func(t *testing.T) {
		err := serrors.Wrap("parse failed", errors.New("boom"), "line", 42)
		assert.Contains(t, err.Error(), "parse failed")
		assert.Contains(t, err.Error(), "line=42")
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestJoin(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		cause := errors.New("cause")
		wrappedErr := serrors.Join(sentinel, cause, "someCtx", "someValue")
		assert.ErrorIs(t, wrappedErr, sentinel)
		assert.ErrorIs(t, wrappedErr, cause)
	})
	t.Run("nil in nil out", func(t *testing.T) {
		assert.NoError(t, serrors.Join(nil, nil))
	})
	t.Run("nil cause", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		wrappedErr := serrors.JoinNoStack(sentinel, nil, "k", "v")
		assert.ErrorIs(t, wrappedErr, sentinel)
		assert.Contains(t, wrappedErr.Error(), "k=v")
	})
}

func TestNew(t *testing.T) {
	err1 := serrors.New("err")
	err2 := serrors.New("err")
	assert.ErrorIs(t, err1, err1)
	assert.NotErrorIs(t, err1, err2)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestList(t *testing.T) {
	var errs serrors.List
	assert.NoError(t, errs.ToError())
	errs = append(errs, errors.New("one"), errors.New("two"))
	combined := errs.ToError()
	require.Error(t, combined)
	assert.Equal(t, "[ one; two ]", combined.Error())
}
