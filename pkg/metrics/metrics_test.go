package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("notify-api", nil)

	c.RecordReceived()
	c.RecordReceived()
	c.RecordProcessed(10 * time.Millisecond)
	c.RecordProcessed(30 * time.Millisecond)
	c.RecordDelivered()
	c.RecordError()
	c.IncrementCustom("sms_sent")
	c.AddCustom("sms_sent", 2)

	snap := c.GetSnapshot()
	if snap.ServiceName != "notify-api" {
		t.Errorf("ServiceName = %q, want notify-api", snap.ServiceName)
	}
	if snap.EventsReceived != 2 {
		t.Errorf("EventsReceived = %d, want 2", snap.EventsReceived)
	}
	if snap.EventsProcessed != 2 {
		t.Errorf("EventsProcessed = %d, want 2", snap.EventsProcessed)
	}
	if snap.Deliveries != 1 {
		t.Errorf("Deliveries = %d, want 1", snap.Deliveries)
	}
	if snap.ProcessingErrors != 1 {
		t.Errorf("ProcessingErrors = %d, want 1", snap.ProcessingErrors)
	}
	if want := float64(20 * time.Millisecond); snap.AvgProcessingLatencyNs != want {
		t.Errorf("AvgProcessingLatencyNs = %v, want %v", snap.AvgProcessingLatencyNs, want)
	}
	if snap.CustomCounters["sms_sent"] != 3 {
		t.Errorf("CustomCounters[sms_sent] = %d, want 3", snap.CustomCounters["sms_sent"])
	}
}

func TestCollector_ConcurrentCustomCounters(t *testing.T) {
	c := NewCollector("reminder-dispatcher", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementCustom("reminders_sent")
		}()
	}
	wg.Wait()

	if got := c.GetSnapshot().CustomCounters["reminders_sent"]; got != 50 {
		t.Errorf("reminders_sent = %d, want 50", got)
	}
}

func TestCollector_StartStopWithoutRedis(t *testing.T) {
	c := NewCollector("notify-api", nil)
	c.SetReportInterval(5 * time.Millisecond)
	c.Start(context.Background())
	time.Sleep(15 * time.Millisecond)
	c.Stop()
	// Second stop must not panic.
	c.Stop()
}

func TestReader_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}

	c := NewCollector("notify-api", client)
	c.RecordDelivered()
	c.writeMetrics(ctx)

	m, err := NewReader(client).GetServiceMetrics(ctx, "notify-api")
	if err != nil {
		t.Fatalf("GetServiceMetrics() error = %v", err)
	}
	if m.Deliveries != 1 {
		t.Errorf("Deliveries = %d, want 1", m.Deliveries)
	}
	if m.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", m.Status)
	}
}
