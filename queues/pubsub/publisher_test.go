package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"airspace-allocator/queues"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type args struct {
	res *queues.AllocationResult
}

type test struct {
	name    string
	setup   func() *Publisher
	args    args
	wantErr bool
}

func newTestClient(t *testing.T) (*pstest.Server, *pubsub.Client) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.Dial(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial error: %#v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("client error: %#v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestPublisher_PublishResult(t *testing.T) {
	if testing.Short() {
		t.Skip("short")
	}

	srv, client := newTestClient(t)
	ctx := context.Background()

	tests := []test{
		{
			name: "success",
			setup: func() *Publisher {
				topic, err := client.CreateTopic(ctx, "test-topic")
				if err != nil {
					t.Fatalf("create topic: %#v", err)
				}
				return &Publisher{projectID: "test-project", resultTopic: "test-topic", client: client, topic: topic}
			},
			args: args{res: &queues.AllocationResult{
				EnvelopeVersion: queues.EnvelopeVersion, Type: queues.TypeAllocationResult, RequestID: "r1", RunID: "run-1",
				Date: "2025-03-04", Status: queues.StatusSuccess,
				Assignments: []queues.Assignment{{EventID: "TAC401", Prefix: "TAC", Takeoff: "0900", Land: "1000", FreqPair: "17/80", Chattermark: "246.8", AssignedArea: "Area 4"}},
			}},
			wantErr: false,
		},
		{
			name: "missing topic error",
			setup: func() *Publisher {
				topic := client.Topic("missing-topic")
				return &Publisher{projectID: "test-project", resultTopic: "missing-topic", client: client, topic: topic}
			},
			args:    args{res: &queues.AllocationResult{EnvelopeVersion: queues.EnvelopeVersion, Type: queues.TypeAllocationResult, RequestID: "r2", Status: queues.StatusFailure, ErrorMessage: strPtr("bad")}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.setup()
			err := p.PublishResult(ctx, tt.args.res)
			gotErr := (err != nil)
			if gotErr != tt.wantErr {
				t.Errorf("PublishResult() error mismatch\ngotErr: %#v\nwantErr: %#v\nerr: %#v", gotErr, tt.wantErr, err)
			}
		})
	}

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["date"]; got != "2025-03-04" {
		t.Errorf("date attribute got=%#v", got)
	}
	if got := msgs[0].Attributes["runId"]; got != "run-1" {
		t.Errorf("runId attribute got=%#v", got)
	}
	var res queues.AllocationResult
	if err := json.Unmarshal(msgs[0].Data, &res); err != nil {
		t.Fatalf("unmarshal published payload: %#v", err)
	}
	if len(res.Assignments) != 1 || res.Assignments[0].FreqPair != "17/80" {
		t.Errorf("unexpected payload: %#v", res)
	}
}

func TestPublisher_CloseWithoutClient(t *testing.T) {
	p := NewPublisher("p", "t", "")
	if err := p.Close(); err != nil {
		t.Errorf("Close() err=%#v", err)
	}
}

func strPtr(s string) *string { return &s }
