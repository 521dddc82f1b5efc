package scoring

import "sort"

type Order string

const (
	Top    Order = "top"
	Bottom Order = "bottom"
)

type TeacherScore struct {
	TeacherID   int64        `json:"teacherId"`
	TeacherName string       `json:"teacherName"`
	JobTypeID   int64        `json:"jobTypeId"`
	Score       OverallScore `json:"score"`
}

// Rank orders teachers by overall score (descending for Top, ascending for Bottom) and
// trims to limit when limit > 0. Equal scores keep their input order. The input slice is
// not modified.
func Rank(in []TeacherScore, order Order, limit int) []TeacherScore {
	out := make([]TeacherScore, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if order == Bottom {
			return out[i].Score.OverallScore < out[j].Score.OverallScore
		}
		return out[i].Score.OverallScore > out[j].Score.OverallScore
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
