package funding

import (
	"testing"

	"PairPull/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}
