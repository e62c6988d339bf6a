package audithook_test

import (
	"context"
	"errors"
	"testing"

	audithook "github.com/xraph/junction/audit_hook"
	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/id"
)

func TestRecordsEvents(t *testing.T) {
	var got []*audithook.AuditEvent
	ext := audithook.New(audithook.RecorderFunc(func(_ context.Context, ev *audithook.AuditEvent) error {
		got = append(got, ev)
		return nil
	}))
	ctx := context.Background()

	state := &blocking.State{ID: id.NewBlockingStateID(), BlockedID: id.NewBundleID(), Scope: blocking.ScopeBundle, BlockBilling: true}
	_ = ext.OnBlockingStateRecorded(ctx, state)
	_ = ext.OnSubscriptionFailed(ctx, id.NewSubscriptionID(), errors.New("plan not found"))

	if len(got) != 2 {
		t.Fatalf("recorded %d events, want 2", len(got))
	}
	if got[0].Action != audithook.ActionBlockingStateRecorded || got[0].Severity != audithook.SeverityWarning {
		t.Errorf("blocking event = %+v", got[0])
	}
	if got[0].Metadata["scope"] != "bundle" || got[0].ResourceID != state.ID.String() {
		t.Errorf("blocking metadata = %v", got[0].Metadata)
	}
	if got[1].Outcome != audithook.OutcomeFailure || got[1].Reason != "plan not found" {
		t.Errorf("failure event = %+v", got[1])
	}
}

func TestActionFilters(t *testing.T) {
	tests := []struct {
		name string
		opt  audithook.Option
		want int
	}{
		{"enabled only", audithook.WithEnabledActions(audithook.ActionSubscriptionSkipped), 1},
		{"disabled", audithook.WithDisabledActions(audithook.ActionSubscriptionSkipped), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n int
			ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
				n++
				return nil
			}), tt.opt)
			ctx := context.Background()
			_ = ext.OnSubscriptionSkipped(ctx, id.NewSubscriptionID(), "no opening transition")
			_ = ext.OnBlockingStateRecorded(ctx, &blocking.State{})
			if n != tt.want {
				t.Errorf("recorded %d events, want %d", n, tt.want)
			}
		})
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	if err := ext.OnSubscriptionSkipped(context.Background(), id.NewSubscriptionID(), "x"); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
