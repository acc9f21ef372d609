package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratagate/internal/app/store/audit"
	"github.com/dalemusser/stratagate/internal/app/system/auditlog"
	"github.com/dalemusser/stratagate/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "u1", "alice")
	logger.Logout(ctx, req, "u1", "alice")
	logger.PasswordResetFailed(ctx, req, "invalid token")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	store := audit.New(testutil.SetupTestStore(t))
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: "off", Account: "off"})
	logger.LoginSuccess(ctx, httptest.NewRequest("GET", "/", nil), "u1", "alice")

	events, _ := store.GetRecent(ctx, 10)
	if len(events) != 0 {
		t.Error("expected no stored events when config is 'off'")
	}
	if logs.Len() != 0 {
		t.Error("expected no log entries when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	store := audit.New(testutil.SetupTestStore(t))
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: "db"})
	logger.LoginSuccess(ctx, httptest.NewRequest("GET", "/", nil), "u1", "alice")

	events, _ := store.GetByUser(ctx, "u1", 10)
	if len(events) != 1 {
		t.Errorf("expected 1 stored event, got %d", len(events))
	}
	if logs.Len() != 0 {
		t.Errorf("expected no log entries for 'db', got %d", logs.Len())
	}
}

func TestLogger_Log_ConfigLog(t *testing.T) {
	store := audit.New(testutil.SetupTestStore(t))
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: "log"})
	logger.LoginFailedWrongPassword(ctx, httptest.NewRequest("GET", "/", nil), "u1", "alice")

	events, _ := store.GetRecent(ctx, 10)
	if len(events) != 0 {
		t.Error("expected no stored events for 'log'")
	}
	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("failed event level: got %v, want warn", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != audit.EventLoginFailedWrongPassword {
		t.Errorf("event_type: got %v", fields["event_type"])
	}
	if fields["audit"] != true {
		t.Errorf("audit field: got %v, want true", fields["audit"])
	}
}

func TestLogger_CategoryFilteredByConfig(t *testing.T) {
	store := audit.New(testutil.SetupTestStore(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Account: "db"})
	req := httptest.NewRequest("GET", "/", nil)

	logger.LoginSuccess(ctx, req, "u1", "alice")
	logger.UserRegistered(ctx, req, "u1", "alice", true)

	events, _ := store.GetRecent(ctx, 10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventUserRegistered {
		t.Errorf("event: got %q, want %q", events[0].EventType, audit.EventUserRegistered)
	}
	if events[0].Details["verification"] != "required" {
		t.Errorf("verification detail: got %q", events[0].Details["verification"])
	}
}

func TestGetClientIP(t *testing.T) {
	store := audit.New(testutil.SetupTestStore(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})

	cases := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded for wins", "203.0.113.195, 10.0.0.1", "192.168.1.1", "127.0.0.1:12345", "203.0.113.195"},
		{"real ip", "", "192.168.1.100", "127.0.0.1:12345", "192.168.1.100"},
		{"remote addr without port", "", "", "10.0.0.5:12345", "10.0.0.5"},
	}
	for i, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.xff != "" {
			req.Header.Set("X-Forwarded-For", tc.xff)
		}
		if tc.xri != "" {
			req.Header.Set("X-Real-IP", tc.xri)
		}
		req.RemoteAddr = tc.remote

		userID := string(rune('a' + i))
		logger.LoginSuccess(ctx, req, userID, "alice")

		events, _ := store.GetByUser(ctx, userID, 1)
		if len(events) != 1 {
			t.Fatalf("%s: expected 1 event, got %d", tc.name, len(events))
		}
		if events[0].IP != tc.want {
			t.Errorf("%s: IP got %q, want %q", tc.name, events[0].IP, tc.want)
		}
	}
}
