// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cslog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type capturingOutputter struct {
	level Level
	msg   string
}

func (c *capturingOutputter) Output(level Level, s string) {
	c.level = level
	c.msg = s
}

func TestSetOutputterReturnsPrevious(t *testing.T) {
	first := &capturingOutputter{}
	prev := SetOutputter(first)
	defer SetOutputter(prev)

	second := &capturingOutputter{}
	restored := SetOutputter(second)
	require.Same(t, first, restored)
	SetOutputter(first)
}

func TestErrorfDispatchesAtErrorLevel(t *testing.T) {
	c := &capturingOutputter{}
	prev := SetOutputter(c)
	defer SetOutputter(prev)

	Errorf("collision on %s", "menu1/setting1")
	require.Equal(t, Error, c.level)
	require.Equal(t, "collision on menu1/setting1", c.msg)
}

func TestInfofDispatchesAtInfoLevel(t *testing.T) {
	c := &capturingOutputter{}
	prev := SetOutputter(c)
	defer SetOutputter(prev)

	Infof("loaded %d entries", 3)
	require.Equal(t, Info, c.level)
	require.Equal(t, "loaded 3 entries", c.msg)
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "error", Error.String())
	require.Equal(t, "info", Info.String())
	require.Equal(t, "unknown", Level(99).String())
}
