package plugin

import "testing"

type epochMsg uint64

func (m epochMsg) GetEpoch() uint64 { return uint64(m) }

func TestIsStale(t *testing.T) {
	ctx := &Context{Epoch: 3}
	if IsStale(ctx, epochMsg(3)) {
		t.Error("current epoch should not be stale")
	}
	if !IsStale(ctx, epochMsg(2)) {
		t.Error("old epoch should be stale")
	}
	if IsStale(nil, epochMsg(1)) {
		t.Error("nil context never reports stale")
	}
}
