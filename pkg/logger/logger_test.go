package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithAccountID(ctx, "acc-123")
	ctx = log.WithEntity(ctx, "department", "dep-9")

	log.Error(ctx, "boom", errors.New("boom"))

	for _, want := range []string{`"account_id":"acc-123"`, `"entity":"department"`, `"entity_id":"dep-9"`, `"stack"`} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Fatalf("expected %s in entry=%s", want, buf.String())
		}
	}
}

func TestLoggerErrorFlattensCauseChain(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	pgErr := &pgconn.PgError{Code: "23505", TableName: "kv_slots", ConstraintName: "kv_slots_pkey"}
	log.Error(context.Background(), "snapshot save failed", pkgerrors.Wrap(pkgerrors.CodeStorage, fmt.Errorf("upsert: %w", pgErr), "Error saving data"))

	for _, want := range []string{`"error_code":"STORAGE_FAILURE"`, `"error_chain":[`, `"pg_code":"23505"`, `"pg_table":"kv_slots"`, `"pg_constraint":"kv_slots_pkey"`} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Fatalf("expected %s in entry=%s", want, buf.String())
		}
	}

	buf.Reset()
	log.Error(context.Background(), "plain", errors.New("boom"))
	if bytes.Contains(buf.Bytes(), []byte(`"pg_code"`)) || bytes.Contains(buf.Bytes(), []byte(`"error_code"`)) {
		t.Fatalf("did not expect code or postgres fields for a plain error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack when warn stack enabled; entry=%s", buf.String())
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("did not expect stack when warn stack disabled; entry=%s", buf.String())
	}
}

func TestLoggerLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("warn"), Output: buf})
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be filtered, got %s", buf.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	ctx := log.WithRoute(context.Background(), "accounts")
	log.Info(ctx, "ignored")
	log.Warn(ctx, "ignored")
	log.Error(ctx, "ignored", errors.New("x"))
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}
