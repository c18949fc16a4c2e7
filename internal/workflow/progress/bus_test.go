package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workflowmodels "versify/internal/domain/models/workflow"
)

func TestBus_PublishAssignsIncreasingSeq(t *testing.T) {
	b := New(Options{})

	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepStarted})
	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepCompleted})

	sub := b.Subscribe("t1", 0)
	defer sub.Close()

	first := <-sub.Events
	second := <-sub.Events
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, "t1", first.TaskID)
}

func TestBus_SubscribeReplaysFromLastSeq(t *testing.T) {
	b := New(Options{})

	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepStarted})
	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepProgress})
	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepCompleted})

	sub := b.Subscribe("t1", 2)
	defer sub.Close()

	e := <-sub.Events
	assert.Equal(t, uint64(3), e.Seq)
}

func TestBus_SubscribeAfterTerminalClosesImmediately(t *testing.T) {
	b := New(Options{})
	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskCompleted})

	sub := b.Subscribe("t1", 0)
	defer sub.Close()

	_, ok := <-sub.Events
	require.True(t, ok, "catch-up event delivered before close")

	_, ok = <-sub.Events
	assert.False(t, ok, "channel closed once the buffered terminal event is delivered")
}

func TestBus_RingDropsOldestOnOverflow(t *testing.T) {
	b := New(Options{RingCapacity: 2})

	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepStarted})
	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepProgress})
	b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepCompleted})

	sub := b.Subscribe("t1", 0)
	defer sub.Close()

	e := <-sub.Events
	assert.Equal(t, uint64(2), e.Seq, "oldest event (seq 1) should have been evicted")
	assert.Equal(t, 1, e.Dropped)
}

func TestBus_SlowSubscriberNeverBlocksPublisher(t *testing.T) {
	b := New(Options{SubscriberBuffer: 1})
	sub := b.Subscribe("t1", 0)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish("t1", workflowmodels.ProgressEvent{Kind: workflowmodels.EventStepProgress})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestBus_CloseUnregistersSubscribers(t *testing.T) {
	b := New(Options{})
	sub := b.Subscribe("t1", 0)

	b.Close("t1")

	_, ok := <-sub.Events
	assert.False(t, ok, "Close should close every subscriber channel for the task")
}

func TestBus_HeartbeatPublishesHeartbeatEvent(t *testing.T) {
	b := New(Options{})
	sub := b.Subscribe("t1", 0)
	defer sub.Close()

	b.Heartbeat("t1")

	e := <-sub.Events
	assert.Equal(t, workflowmodels.EventHeartbeat, e.Kind)
}
