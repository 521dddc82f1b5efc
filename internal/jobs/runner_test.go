package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunnerCountsOutcomes(t *testing.T) {
	r := New(context.Background(), nil)

	calls := 0
	flaky := func(context.Context) error {
		calls++
		switch calls {
		case 2:
			return errors.New("db down")
		case 3:
			var m map[string]int
			m["x"] = 1
		}
		return nil
	}
	for i := 0; i < 4; i++ {
		r.run("flaky", flaky)
	}

	tests := []struct {
		result string
		want   float64
	}{
		{resultOK, 2},
		{resultError, 1},
		{resultPanic, 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(jobRuns.WithLabelValues("flaky", tt.result)); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.result, got, tt.want)
		}
	}
	if calls != 4 {
		t.Fatalf("calls = %d", calls)
	}
}
