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
	"math/rand/v2"
	"time"
)

const (
	MessageIDLength = 36
	PhoneLength     = 10
	MinTextLength   = 20
	MaxTextLength   = 160
	MaxStatus       = 3

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	digits       = "0123456789"
	textCharset  = alphanumeric + " "
)

// Row is one synthetic message record
type Row struct {
	MessageID string
	Sender    string
	Recipient string
	Text      string
	Timestamp time.Time
	Status    int8
}

// Generator is not safe for concurrent use, every worker owns its own
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// New seeds the generator from the worker id and the wall clock so that
// workers started at the same instant still draw different streams
func New(workerID int) *Generator {
	return NewWithSeed(uint64(time.Now().UnixNano()), uint64(workerID)+1)
}

func NewWithSeed(seed1, seed2 uint64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed1, seed2)),
		now: time.Now,
	}
}

func (g *Generator) Row() Row {
	return Row{
		MessageID: g.randomString(alphanumeric, MessageIDLength),
		Sender:    g.randomString(digits, PhoneLength),
		Recipient: g.randomString(digits, PhoneLength),
		Text:      g.randomString(textCharset, MinTextLength+g.rnd.IntN(MaxTextLength-MinTextLength+1)),
		Timestamp: g.now().Truncate(time.Second),
		Status:    int8(g.rnd.IntN(MaxStatus + 1)),
	}
}

func (g *Generator) Batch(n int) []Row {
	if n <= 0 {
		return nil
	}
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = g.Row()
	}
	return rows
}

func (g *Generator) randomString(charset string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[g.rnd.IntN(len(charset))]
	}
	return string(b)
}
