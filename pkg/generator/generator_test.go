/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package generator

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alnumRe = regexp.MustCompile(`^[A-Za-z0-9]{36}$`)
	phoneRe = regexp.MustCompile(`^[0-9]{10}$`)
	textRe  = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)
)

func TestRowShape(t *testing.T) {
	g := NewWithSeed(1, 2)
	for i := 0; i < 5000; i++ {
		r := g.Row()
		require.Regexp(t, alnumRe, r.MessageID)
		require.Regexp(t, phoneRe, r.Sender)
		require.Regexp(t, phoneRe, r.Recipient)
		require.Regexp(t, textRe, r.Text)
		require.GreaterOrEqual(t, len(r.Text), MinTextLength)
		require.LessOrEqual(t, len(r.Text), MaxTextLength)
		require.GreaterOrEqual(t, r.Status, int8(0))
		require.LessOrEqual(t, r.Status, int8(MaxStatus))
		require.Equal(t, r.Timestamp, r.Timestamp.Truncate(time.Second))
	}
}

func TestTextLengthCoversRange(t *testing.T) {
	g := NewWithSeed(7, 7)
	seen := map[int]bool{}
	statuses := map[int8]bool{}
	for i := 0; i < 50000; i++ {
		r := g.Row()
		seen[len(r.Text)] = true
		statuses[r.Status] = true
	}
	assert.True(t, seen[MinTextLength])
	assert.True(t, seen[MaxTextLength])
	assert.Len(t, statuses, MaxStatus+1)
}

func TestSeedsAreIndependent(t *testing.T) {
	a := NewWithSeed(42, 1)
	b := NewWithSeed(42, 1)
	c := NewWithSeed(42, 2)

	ra, rb, rc := a.Row(), b.Row(), c.Row()
	assert.Equal(t, ra.MessageID, rb.MessageID)
	assert.NotEqual(t, ra.MessageID, rc.MessageID)
}

func TestBatch(t *testing.T) {
	g := New(3)
	assert.Len(t, g.Batch(250), 250)
	assert.Nil(t, g.Batch(0))
	assert.Nil(t, g.Batch(-1))
}
