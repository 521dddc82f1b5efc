package jobs

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

type Auditor interface {
	AuditWeights(ctx context.Context) (map[int64][]scoring.WeightValidation, error)
}

// Notifier получает список должностей школы с некорректными весами.
type Notifier interface {
	NotifyWeightWarnings(ctx context.Context, schoolID int64, invalid []scoring.WeightValidation) error
}

// WeightAudit periodically checks KPI weights of every school: it publishes the number
// of invalid job types per school and notifies managers when that set changes.
type WeightAudit struct {
	svc    Auditor
	notify Notifier
	log    *zap.Logger

	mu   sync.Mutex
	last map[int64][]int64 // school -> id некорректных должностей с прошлого прогона
}

func NewWeightAudit(svc Auditor, notify Notifier, log *zap.Logger) *WeightAudit {
	if log == nil {
		log = zap.NewNop()
	}
	return &WeightAudit{svc: svc, notify: notify, log: log, last: make(map[int64][]int64)}
}

func (a *WeightAudit) Run(ctx context.Context) error {
	res, err := a.svc.AuditWeights(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for schoolID := range a.last {
		if _, ok := res[schoolID]; !ok {
			metrics.InvalidJobTypes.DeleteLabelValues(strconv.FormatInt(schoolID, 10))
			delete(a.last, schoolID)
		}
	}

	for schoolID, ws := range res {
		var invalid []scoring.WeightValidation
		ids := []int64{}
		for _, w := range ws {
			if !w.IsValid {
				invalid = append(invalid, w)
				ids = append(ids, w.JobTypeID)
			}
		}
		metrics.InvalidJobTypes.WithLabelValues(strconv.FormatInt(schoolID, 10)).Set(float64(len(invalid)))
		for _, w := range invalid {
			a.log.Warn("kpi weights do not sum to 100",
				zap.Int64("school_id", schoolID),
				zap.Int64("job_type_id", w.JobTypeID),
				zap.String("job_type", w.JobTypeName),
				zap.Float64("total_weight", w.TotalWeight),
				zap.Int("kpi_count", w.KPICount))
		}

		prev, seen := a.last[schoolID]
		a.last[schoolID] = ids
		if a.notify == nil || len(invalid) == 0 || (seen && slices.Equal(prev, ids)) {
			continue
		}
		if err := a.notify.NotifyWeightWarnings(ctx, schoolID, invalid); err != nil {
			a.log.Warn("weight warning notify", zap.Int64("school_id", schoolID), zap.Error(err))
		}
	}
	return nil
}
