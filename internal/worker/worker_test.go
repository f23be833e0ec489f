package worker

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/config"
	"github.com/mcvu-symposium/backend/pkg/queue"
)

func testQRAPI() config.QRAPIConfig {
	return config.QRAPIConfig{BaseURL: "https://qr.example/render", Size: 300}
}

func TestProcessRejectsUnknownType(t *testing.T) {
	p := NewProcessor(nil, nil, nil, nil, nil, nil, nil, testQRAPI(), zap.NewNop())
	err := p.Process(context.Background(), &queue.Job{ID: "j1", Type: "resize_avatar"})
	if err == nil {
		t.Fatal("expected error for unknown job type")
	}
}

func TestProcessRejectsMalformedPayload(t *testing.T) {
	p := NewProcessor(nil, nil, nil, nil, nil, nil, nil, testQRAPI(), zap.NewNop())
	for _, typ := range []queue.JobType{
		queue.JobTypeQRImage,
		queue.JobTypeInvoiceEmail,
		queue.JobTypeReceiptEmail,
		queue.JobTypeOrderSnapshot,
	} {
		t.Run(string(typ), func(t *testing.T) {
			job := &queue.Job{ID: "j1", Type: typ, Payload: json.RawMessage(`{broken`)}
			if err := p.Process(context.Background(), job); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestProcessQRImageRequiresStorage(t *testing.T) {
	p := NewProcessor(nil, nil, nil, nil, nil, nil, nil, testQRAPI(), zap.NewNop())
	err := p.processQRImage(context.Background(), queue.QRImagePayload{Code: "ABCD2345"})
	if err == nil {
		t.Fatal("expected error when object storage is disabled")
	}
}
