package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

func TestLogWritesAuditFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf))

	LogWithDetail(ctx, ActionClearHistory, "jobs", "u42", "5 entries", "history cleared")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	want := map[string]any{
		log.FieldLogType:  log.LogTypeAudit,
		FieldAction:       ActionClearHistory,
		log.FieldCategory: "jobs",
		log.FieldUserID:   "u42",
		FieldDetail:       "5 entries",
		"message":         "history cleared",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: want %v, got %v", k, v, entry[k])
		}
	}
}
