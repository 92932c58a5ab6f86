package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-ingest/internal/ingest"
)

func TestNotifyUploadSendsEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	event := ingest.UploadEvent{
		RunID:        "run-1",
		Kind:         ingest.KindAirPollution,
		Bucket:       "bucket",
		Key:          "raw/pollution/2024-01-01T00:00_aq_data.json",
		SizeBytes:    42,
		RunTimestamp: "2024-01-01T00:00",
	}

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "raw_uploads" {
			t.Errorf("unexpected topic %q", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != event.Key {
			t.Errorf("unexpected key %q", key)
		}
		value, _ := msg.Value.Encode()
		var got ingest.UploadEvent
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got != event {
			t.Errorf("unexpected event %+v", got)
		}
		return nil
	})

	n := NewKafkaNotifierWithProducer(producer, "raw_uploads", zap.NewNop())
	if err := n.NotifyUpload(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNotifyUploadReturnsSendError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	n := NewKafkaNotifierWithProducer(producer, "raw_uploads", zap.NewNop())
	err := n.NotifyUpload(context.Background(), ingest.UploadEvent{Key: "k"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
	_ = n.Close()
}
