package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForReady(t *testing.T) {
	p := &flakyPinger{failures: 2}
	if err := WaitForReady(context.Background(), p, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	p := &flakyPinger{failures: 1 << 20}
	err := WaitForReady(context.Background(), p, 150*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestBulkResponse_Failed(t *testing.T) {
	r := &BulkResponse{Items: []BulkItemResult{
		{Status: 201},
		{Status: 400, Error: &ErrorCause{Type: "mapper_parsing_exception"}},
		{Status: 200},
		{Status: 429},
	}}
	got := r.Failed()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Failed = %v, want [1 3]", got)
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name    string
		err     *Error
		wantErr string
		wantMsg string
	}{
		{
			"full",
			&Error{Op: OpCreateIndex, Status: 400, Type: "resource_already_exists_exception", Reason: "index [orders] already exists"},
			"indices.create: [400] resource_already_exists_exception: index [orders] already exists",
			"resource_already_exists_exception: index [orders] already exists",
		},
		{
			"status only",
			&Error{Op: OpGet, Status: 404, Reason: "document not found"},
			"get: [404] document not found",
			"document not found",
		},
		{
			"transport",
			&Error{Op: OpPing, Err: errors.New("dial tcp: refused")},
			"ping: dial tcp: refused",
			"dial tcp: refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantErr {
				t.Errorf("Error() = %q, want %q", got, tt.wantErr)
			}
			if got := tt.err.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := context.Canceled
	err := error(&Error{Op: OpSearch, Err: cause})
	if !errors.Is(err, context.Canceled) {
		t.Error("expected errors.Is to reach the cause")
	}
	var ee *Error
	if !errors.As(err, &ee) || ee.Op != OpSearch {
		t.Errorf("errors.As failed: %v", err)
	}
}
