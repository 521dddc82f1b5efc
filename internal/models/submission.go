package models

import "time"

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "PENDING"
	StatusAccepted SubmissionStatus = "ACCEPTED"
	StatusRejected SubmissionStatus = "REJECTED"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

const (
	MinRating = 1
	MaxRating = 5
)

type EvidenceSubmission struct {
	ID           int64            `db:"id" json:"id"`
	TeacherID    int64            `db:"teacher_id" json:"teacherId"`
	KPIID        int64            `db:"kpi_id" json:"kpiId"`
	EvidenceID   int64            `db:"evidence_id" json:"evidenceId"`
	FileURL      string           `db:"file_url" json:"fileUrl"`
	Description  *string          `db:"description" json:"description,omitempty"`
	Status       SubmissionStatus `db:"status" json:"status"`
	Rating       *int             `db:"rating" json:"rating,omitempty"`
	RejectReason *string          `db:"reject_reason" json:"rejectReason,omitempty"`
	ReviewedBy   *int64           `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time       `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
}
