package limiter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/************ fake pgx ************/
type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakePool struct {
	qrErr         error
	qrBlockedTill *time.Time
	qrFailsRet    int
	lastQueryArgs []any

	lastExecSQL  string
	lastExecArgs []any
	execErr      error
}

func (f *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastExecSQL = sql
	f.lastExecArgs = args
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastQueryArgs = args
	switch {

	case contains(sql, "SELECT blocked_until"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}

			if f.qrBlockedTill != nil {
				*(dest[0].(*time.Time)) = *f.qrBlockedTill
			} else {
				*(dest[0].(*time.Time)) = time.Time{} // 'epoch'
			}
			return nil
		}}

	case contains(sql, "RETURNING fail_count"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			*(dest[0].(*int)) = f.qrFailsRet
			return nil
		}}
	default:
		return fakeRow{scan: func(dest ...any) error { return errors.New("unexpected query") }}
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }

func TestAllow_NoRow_Allows(t *testing.T) {
	fp := &fakePool{qrErr: pgx.ErrNoRows}
	l := NewPG(fp, 15*time.Minute, 5, 15*time.Minute)

	ok, dur, err := l.Allow(context.Background(), "ann@x.com", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow no-row: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_BlockedUntilFuture(t *testing.T) {
	fut := time.Now().Add(10 * time.Minute)
	fp := &fakePool{qrBlockedTill: &fut}
	l := NewPG(fp, 15*time.Minute, 5, 15*time.Minute)

	ok, dur, err := l.Allow(context.Background(), "u", []byte("h"))
	if err != nil || ok || dur <= 0 {
		t.Fatalf("Allow blocked: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_PastOrEpoch_Allows(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	fp := &fakePool{qrBlockedTill: &past}
	l := NewPG(fp, 15*time.Minute, 5, 15*time.Minute)

	ok, dur, err := l.Allow(context.Background(), "u", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow past: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestAllow_DBError_Propagates(t *testing.T) {
	fp := &fakePool{qrErr: errors.New("db boom")}
	l := NewPG(fp, 15*time.Minute, 5, 15*time.Minute)

	ok, _, err := l.Allow(context.Background(), "u", []byte("h"))
	if err == nil || ok {
		t.Fatalf("want error propagate, got ok=%v err=%v", ok, err)
	}
}

func TestSuccess_ExecError_Propagates(t *testing.T) {
	fp := &fakePool{execErr: errors.New("exec fail")}
	l := NewPG(fp, 15*time.Minute, 5, 15*time.Minute)

	if err := l.Success(context.Background(), "u", []byte("h")); err == nil {
		t.Fatalf("want exec error")
	}
}

func TestSuccess_OK(t *testing.T) {
	fp := &fakePool{}
	l := NewPG(fp, 15*time.Minute, 5, 15*time.Minute)

	if err := l.Success(context.Background(), "u", []byte("h")); err != nil {
		t.Fatalf("success err: %v", err)
	}
	if !contains(fp.lastExecSQL, "INSERT INTO auth_limiter") {
		t.Fatalf("unexpected exec: %s", fp.lastExecSQL)
	}
}

func TestFailure_Increments_NoBlock(t *testing.T) {
	fp := &fakePool{qrFailsRet: 2}
	l := NewPG(fp, 5*time.Minute, 5, 15*time.Minute)

	blocked, dur, err := l.Failure(context.Background(), "u", []byte("h"))
	if err != nil || blocked || dur != 0 {
		t.Fatalf("Failure no block: blocked=%v dur=%v err=%v", blocked, dur, err)
	}
}

func TestFailure_BlocksAtThreshold(t *testing.T) {
	fp := &fakePool{qrFailsRet: 5}
	l := NewPG(fp, 5*time.Minute, 5, 10*time.Minute)

	blocked, dur, err := l.Failure(context.Background(), "u", []byte("h"))
	if err != nil || !blocked || dur != 10*time.Minute {
		t.Fatalf("Failure block: blocked=%v dur=%v err=%v", blocked, dur, err)
	}
	if !contains(fp.lastExecSQL, "UPDATE auth_limiter SET blocked_until") {
		t.Fatalf("must update blocked_until, exec=%s", fp.lastExecSQL)
	}
	if len(fp.lastExecArgs) != 3 || fp.lastExecArgs[0] != "u" {
		t.Fatalf("block must be keyed by email, args=%v", fp.lastExecArgs)
	}
}

func TestFailure_DBErrorOnReturning(t *testing.T) {
	fp := &fakePool{qrErr: errors.New("query error")}
	l := NewPG(fp, 5*time.Minute, 5, 10*time.Minute)

	if _, _, err := l.Failure(context.Background(), "u", []byte("h")); err == nil {
		t.Fatalf("want error from returning fail_count")
	}
}

func TestFailure_BlockExecError(t *testing.T) {
	fp := &fakePool{qrFailsRet: 5, execErr: errors.New("exec fail")}
	l := NewPG(fp, 5*time.Minute, 5, 10*time.Minute)

	blocked, _, err := l.Failure(context.Background(), "u", []byte("h"))
	if err == nil || blocked {
		t.Fatalf("want exec error and no block, got blocked=%v err=%v", blocked, err)
	}
}

func TestPG_UsesInjectedClock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	until := now.Add(7 * time.Minute)
	fp := &fakePool{qrBlockedTill: &until}
	l := NewPG(fp, 5*time.Minute, 3, 10*time.Minute).WithClock(clock)

	ok, dur, err := l.Allow(context.Background(), "u", []byte("h"))
	if err != nil || ok || dur != 7*time.Minute {
		t.Fatalf("Allow: ok=%v dur=%v err=%v", ok, dur, err)
	}

	fp.qrFailsRet = 3
	blocked, _, err := l.Failure(context.Background(), "u", []byte("h"))
	if err != nil || !blocked {
		t.Fatalf("Failure: blocked=%v err=%v", blocked, err)
	}
	if len(fp.lastQueryArgs) != 4 || fp.lastQueryArgs[2] != now || fp.lastQueryArgs[3] != 5*time.Minute {
		t.Fatalf("failure upsert args=%v", fp.lastQueryArgs)
	}
	if got := fp.lastExecArgs[2]; got != now.Add(10*time.Minute) {
		t.Fatalf("blocked_until=%v, want %v", got, now.Add(10*time.Minute))
	}
	if !contains(fp.lastExecSQL, "fail_count = 0") {
		t.Fatalf("block must restart the count: %s", fp.lastExecSQL)
	}

	if err := l.Success(context.Background(), "u", []byte("h")); err != nil {
		t.Fatalf("Success: %v", err)
	}
	if len(fp.lastExecArgs) != 3 || fp.lastExecArgs[2] != now {
		t.Fatalf("success args=%v", fp.lastExecArgs)
	}
}

func TestPG_BlockExpiresOnClock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(time.Minute)
	fp := &fakePool{qrBlockedTill: &until}
	l := NewPG(fp, 5*time.Minute, 3, 10*time.Minute).WithClock(func() time.Time { return now.Add(time.Minute) })

	ok, dur, err := l.Allow(context.Background(), "u", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow at boundary: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestNop_NeverBlocks(t *testing.T) {
	var l Limiter = Nop{}
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if blocked, _, err := l.Failure(ctx, "u", nil); err != nil || blocked {
			t.Fatalf("nop failure: blocked=%v err=%v", blocked, err)
		}
	}
	if ok, _, err := l.Allow(ctx, "u", nil); err != nil || !ok {
		t.Fatalf("nop allow: ok=%v err=%v", ok, err)
	}
	if err := l.Success(ctx, "u", nil); err != nil {
		t.Fatalf("nop success: %v", err)
	}
}

func TestHashIP_Determinism(t *testing.T) {
	a := HashIP("1.2.3.4:123")
	b := HashIP("1.2.3.4:123")
	c := HashIP("5.6.7.8:321")
	if string(a) != string(b) || string(a) == string(c) || len(a) != 32 {
		t.Fatalf("hash mismatch/len: %d", len(a))
	}
}
