package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

type fakeAuditor struct {
	res map[int64][]scoring.WeightValidation
	err error
}

func (f *fakeAuditor) AuditWeights(context.Context) (map[int64][]scoring.WeightValidation, error) {
	return f.res, f.err
}

type fakeNotifier struct {
	calls map[int64]int
}

func (f *fakeNotifier) NotifyWeightWarnings(_ context.Context, schoolID int64, _ []scoring.WeightValidation) error {
	f.calls[schoolID]++
	return nil
}

func TestWeightAuditNotifiesOnChange(t *testing.T) {
	aud := &fakeAuditor{res: map[int64][]scoring.WeightValidation{
		901: {
			{JobTypeID: 1, JobTypeName: "Учитель", TotalWeight: 100, KPICount: 3, IsValid: true},
			{JobTypeID: 2, JobTypeName: "Психолог", TotalWeight: 90, KPICount: 2},
		},
		902: {
			{JobTypeID: 1, JobTypeName: "Учитель", TotalWeight: 100, KPICount: 3, IsValid: true},
		},
	}}
	n := &fakeNotifier{calls: map[int64]int{}}
	a := NewWeightAudit(aud, n, nil)
	ctx := context.Background()

	if err := a.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(metrics.InvalidJobTypes.WithLabelValues("901")); got != 1 {
		t.Fatalf("gauge 901 = %v", got)
	}
	if got := testutil.ToFloat64(metrics.InvalidJobTypes.WithLabelValues("902")); got != 0 {
		t.Fatalf("gauge 902 = %v", got)
	}
	if n.calls[901] != 1 || n.calls[902] != 0 {
		t.Fatalf("calls after first run: %v", n.calls)
	}

	// без изменений, повторно не шлём
	if err := a.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if n.calls[901] != 1 {
		t.Fatalf("repeated notify: %v", n.calls)
	}

	// починили веса, потом снова сломали: новое уведомление
	aud.res[901][1].IsValid = true
	if err := a.Run(ctx); err != nil {
		t.Fatal(err)
	}
	aud.res[901][1].IsValid = false
	if err := a.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if n.calls[901] != 2 {
		t.Fatalf("calls after regression: %v", n.calls)
	}
}

func TestWeightAuditError(t *testing.T) {
	a := NewWeightAudit(&fakeAuditor{err: errors.New("db down")}, nil, nil)
	if err := a.Run(context.Background()); err == nil {
		t.Fatal("want error")
	}
}
