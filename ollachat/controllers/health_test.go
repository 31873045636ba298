package controllers

import (
	"context"
	"errors"
	"testing"

	"ollachat/ollachat/sources/psql/psqltest"
)

type downDB struct{}

func (downDB) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestHealthCheck(t *testing.T) {
	hc := NewHealthController(psqltest.NewDatabase(t), "test", "3001")
	st := hc.Check(context.Background())

	if st.Status != "ok" {
		t.Errorf("expected status ok, got %q", st.Status)
	}
	if st.Database != "connected" {
		t.Errorf("expected database connected, got %q", st.Database)
	}
	if st.Environment != "test" || st.Port != "3001" {
		t.Errorf("unexpected environment %+v", st)
	}
	if st.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestHealthCheckDatabaseDown(t *testing.T) {
	st := NewHealthController(downDB{}, "test", "3001").Check(context.Background())
	if st.Status != "ok" || st.Database != "disconnected" {
		t.Errorf("unexpected health %+v", st)
	}
}
