package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
)

func TestTimeLogsRequestIDAndError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	ctx := WithRequestID(context.Background(), "abc")
	err := errors.New("boom")
	Time(ctx, "thing.Do")(&err)

	out := buf.String()
	for _, want := range []string{"req_id=abc", "op=thing.Do", "err=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestRequestIDMissing(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
