//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PubSub(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()
	logger := slog.Default()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan map[string]string, 1)

	err = client.Subscribe("roadlog.test.>", func(subject string, data []byte) {
		var msg map[string]string
		json.Unmarshal(data, &msg)
		received <- msg
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// Give subscription time to propagate
	time.Sleep(100 * time.Millisecond)

	err = client.Publish("roadlog.test.ping", map[string]string{
		"message": "hello from integration test",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg["message"] != "hello from integration test" {
			t.Errorf("expected hello message, got %v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestIntegration_QueueSubscribeDeliversOnce(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()
	logger := slog.Default()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan TranscribedEvent, 4)
	handler := func(subject string, data []byte) {
		var ev TranscribedEvent
		if err := json.Unmarshal(data, &ev); err == nil {
			received <- ev
		}
	}
	for i := 0; i < 2; i++ {
		if err := client.QueueSubscribe("roadlog.test.queue", QueueGroup, handler); err != nil {
			t.Fatalf("queue subscribe failed: %v", err)
		}
	}

	time.Sleep(100 * time.Millisecond)

	if err := client.Publish("roadlog.test.queue", TranscribedEvent{MemoID: "m-1", UserID: "u", Transcript: "Glatt vei"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.MemoID != "m-1" {
			t.Errorf("expected memo m-1, got %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	select {
	case ev := <-received:
		t.Errorf("message delivered twice within queue group: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
