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
package progress

import (
	"time"

	EventBus "github.com/asaskevich/EventBus"
)

const (
	TopicSample = "progress:sample"
	TopicFinish = "progress:finish"
)

// Sample is emitted by a worker after every committed batch
type Sample struct {
	WorkerID int
	Written  int
	Target   int
	Batches  int
	Elapsed  time.Duration
	TPS      float64
}

// Finish is emitted once by a worker when it reaches a terminal state
type Finish struct {
	WorkerID int
	State    string
	Written  int
	Target   int
	Batches  int
	Elapsed  time.Duration
	TPS      float64
	Err      error
}

type Publisher interface {
	PublishSample(s Sample)
	PublishFinish(f Finish)
}

// Discard drops every event
type Discard struct{}

func (Discard) PublishSample(Sample) {}
func (Discard) PublishFinish(Finish) {}

// Bus fans progress events out to asynchronous subscribers. Publishing never waits for a
// subscriber, so handlers may run concurrently and observe events out of publish order.
type Bus struct {
	bus EventBus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) PublishSample(s Sample) {
	b.bus.Publish(TopicSample, s)
}

func (b *Bus) PublishFinish(f Finish) {
	b.bus.Publish(TopicFinish, f)
}

func (b *Bus) SubscribeSample(fn func(s Sample)) error {
	return b.bus.SubscribeAsync(TopicSample, fn, false)
}

func (b *Bus) SubscribeFinish(fn func(f Finish)) error {
	return b.bus.SubscribeAsync(TopicFinish, fn, false)
}

// Wait blocks until every delivered event has been handled
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}

// Rate is records per second, zero when nothing was measured
func Rate(records int64, elapsed time.Duration) float64 {
	if records <= 0 || elapsed <= 0 {
		return 0
	}
	return float64(records) / elapsed.Seconds()
}
