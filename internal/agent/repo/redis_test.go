package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/dm-insight-core/server/internal/agent/model"
	errx "github.com/dm-insight-core/server/internal/core/error"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisSessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSessionRepository(rdb, ttl), mr
}

func TestRedisRepositoryLoadMissingIsFresh(t *testing.T) {
	r, mr := newRedisRepo(t, time.Hour)

	s, err := r.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ID != "nobody" || s.CollectedVariables == nil || len(s.CollectedVariables) != 0 || len(s.History) != 0 {
		t.Fatalf("expected fresh session, got %+v", s)
	}
	if mr.Exists(sessionKey("nobody")) {
		t.Fatalf("loading a missing session must not create it")
	}
}

func TestRedisRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, 30*time.Minute)

	s := model.NewSession("abc")
	s.Merge(map[string]any{"genre": "뮤지컬", "ticket_price": 40000, "capacity": 1200.5})
	s.LastAskedVariable = "region"
	s.LastSearchSummary = "예술경영지원센터 지원사업 요약"
	s.History = []model.Exchange{{User: "안녕", Reply: "네"}, {User: "장르는 뮤지컬", Reply: "지역은요?"}}
	if err := r.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := mr.Get("session:abc")
	if err != nil {
		t.Fatalf("stored key: %v", err)
	}
	var stored struct {
		History [][]string `json:"history"`
	}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored document: %v", err)
	}
	if diff := cmp.Diff([][]string{{"안녕", "네"}, {"장르는 뮤지컬", "지역은요?"}}, stored.History); diff != "" {
		t.Fatalf("history not stored as pairs (-want +got):\n%s", diff)
	}
	if got := mr.TTL("session:abc"); got != 30*time.Minute {
		t.Fatalf("ttl = %v", got)
	}

	got, err := r.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// numbers come back as float64 after the JSON round trip
	want := map[string]any{"genre": "뮤지컬", "ticket_price": 40000.0, "capacity": 1200.5}
	if diff := cmp.Diff(want, got.CollectedVariables); diff != "" {
		t.Fatalf("collected mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.History, got.History); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	if got.LastAskedVariable != "region" || got.LastSearchSummary != s.LastSearchSummary {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not stamped")
	}
}

func TestRedisRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Minute)

	s := model.NewSession("x")
	s.Merge(map[string]any{"genre": "연극"})
	if err := r.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	got, err := r.Load(ctx, "x")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.CollectedVariables) != 0 {
		t.Fatalf("expected expired session to come back fresh, got %+v", got.CollectedVariables)
	}
}

func TestRedisRepositoryZeroTTLKeepsKey(t *testing.T) {
	r, mr := newRedisRepo(t, 0)

	if err := r.Save(context.Background(), model.NewSession("keep")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := mr.TTL("session:keep"); got != 0 {
		t.Fatalf("ttl = %v, want none", got)
	}
}

func TestRedisRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Hour)

	s := model.NewSession("gone")
	s.Merge(map[string]any{"genre": "클래식"})
	if err := r.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("session:gone") {
		t.Fatalf("key still present after delete")
	}
	// deleting twice is not an error
	if err := r.Delete(ctx, "gone"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestRedisRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Hour)

	if err := mr.Set("session:bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := r.Load(ctx, "bad"); err == nil {
		t.Fatalf("expected decode error for corrupt document")
	}

	if err := r.Save(ctx, nil); err == nil {
		t.Fatalf("expected error saving nil session")
	}

	mr.Close()
	if _, err := r.Load(ctx, "abc"); errx.StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("load with redis down: status = %d, err = %v", errx.StatusOf(err), err)
	}
	if err := r.Save(ctx, model.NewSession("abc")); errx.StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("save with redis down: status = %d, err = %v", errx.StatusOf(err), err)
	}
	if err := r.Delete(ctx, "abc"); errx.StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("delete with redis down: status = %d, err = %v", errx.StatusOf(err), err)
	}
}
