package attendance

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/linarqa/linarqa-web/internal/students"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/types"
)

const (
	attendancePath = "/attendance"
	bulkPath       = "/attendance/bulk"

	// HistoryWindow is how far back the history tab looks.
	HistoryWindow = 30 * 24 * time.Hour
)

// Record is one student's mark for one day.
type Record struct {
	ID             string                 `json:"id"`
	Student        students.Student       `json:"student"`
	AttendanceDate types.Date             `json:"attendanceDate"`
	Status         enums.AttendanceStatus `json:"status"`
	CheckInTime    types.Timestamp        `json:"checkInTime"`
	CheckOutTime   types.Timestamp        `json:"checkOutTime"`
	Notes          string                 `json:"notes,omitempty"`
	RecordedBy     string                 `json:"recordedBy,omitempty"`
	CreatedAt      types.Timestamp        `json:"createdAt"`
	UpdatedAt      types.Timestamp        `json:"updatedAt"`
}

// Mark is what the bulk endpoint accepts per student.
type Mark struct {
	StudentID      string                 `json:"studentId"`
	AttendanceDate string                 `json:"attendanceDate"`
	Status         enums.AttendanceStatus `json:"status"`
	RecordedBy     string                 `json:"recordedBy"`
	CheckInTime    *time.Time             `json:"checkInTime"`
	Notes          string                 `json:"notes"`
}

type requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

type Service interface {
	ForDay(ctx context.Context, studentType enums.StudentType, day types.Date) ([]Record, error)
	History(ctx context.Context, studentType enums.StudentType) ([]Record, error)
	Save(ctx context.Context, day types.Date, marks map[string]enums.AttendanceStatus, recordedBy string) error
}

type service struct {
	api requester
	now func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(api requester, opts ...Option) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api requester required")
	}
	s := &service{api: api, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) ForDay(ctx context.Context, studentType enums.StudentType, day types.Date) ([]Record, error) {
	q := url.Values{}
	q.Set("date", day.String())
	q.Set("type", studentType.QueryValue())
	var out []Record
	if err := s.api.Get(ctx, attendancePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns the type's records of the last thirty days.
func (s *service) History(ctx context.Context, studentType enums.StudentType) ([]Record, error) {
	q := url.Values{}
	q.Set("type", studentType.QueryValue())
	var all []Record
	if err := s.api.Get(ctx, attendancePath, q, &all); err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-HistoryWindow)
	out := make([]Record, 0, len(all))
	for _, rec := range all {
		if !rec.AttendanceDate.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Save sends one mark per student. Students marked on site get a check-in
// time of now.
func (s *service) Save(ctx context.Context, day types.Date, marks map[string]enums.AttendanceStatus, recordedBy string) error {
	if day.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "attendance date is required")
	}
	if len(marks) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no students to mark")
	}
	recordedBy = strings.TrimSpace(recordedBy)
	if recordedBy == "" {
		recordedBy = "Unknown"
	}

	ids := make([]string, 0, len(marks))
	for id, status := range marks {
		if !status.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid attendance status").
				WithDetails(map[string]string{"status": "oneof", "studentId": id})
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := s.now().UTC()
	body := make([]Mark, 0, len(ids))
	for _, id := range ids {
		status := marks[id]
		mark := Mark{
			StudentID:      id,
			AttendanceDate: day.String(),
			Status:         status,
			RecordedBy:     recordedBy,
		}
		if status.OnSite() {
			checkIn := now
			mark.CheckInTime = &checkIn
		}
		body = append(body, mark)
	}
	return s.api.Post(ctx, bulkPath, body, nil)
}

// InitialMarks gives every listed student the status already recorded for
// the day, or PRESENT when there is none.
func InitialMarks(list []students.Student, records []Record) map[string]enums.AttendanceStatus {
	recorded := make(map[string]enums.AttendanceStatus, len(records))
	for _, rec := range records {
		recorded[rec.Student.ID] = rec.Status
	}
	out := make(map[string]enums.AttendanceStatus, len(list))
	for _, st := range list {
		if status, ok := recorded[st.ID]; ok {
			out[st.ID] = status
			continue
		}
		out[st.ID] = enums.AttendancePresent
	}
	return out
}

// Summary counts records per status.
type Summary struct {
	Present int
	Absent  int
	Late    int
	Excused int
	Sick    int
	Total   int
}

func Summarize(records []Record) Summary {
	var s Summary
	for _, rec := range records {
		s.add(rec.Status)
	}
	return s
}

// SummarizeMarks counts pending marks the same way as saved records.
func SummarizeMarks(marks map[string]enums.AttendanceStatus) Summary {
	var s Summary
	for _, status := range marks {
		s.add(status)
	}
	return s
}

func (s *Summary) add(status enums.AttendanceStatus) {
	s.Total++
	switch status {
	case enums.AttendancePresent:
		s.Present++
	case enums.AttendanceAbsent:
		s.Absent++
	case enums.AttendanceLate:
		s.Late++
	case enums.AttendanceExcused:
		s.Excused++
	case enums.AttendanceSick:
		s.Sick++
	}
}

// Day groups the records of one date.
type Day struct {
	Date    types.Date
	Records []Record
	Summary Summary
}

// GroupByDate groups records per day, most recent day first.
func GroupByDate(records []Record) []Day {
	index := map[string]int{}
	var days []Day
	for _, rec := range records {
		key := rec.AttendanceDate.String()
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, Day{Date: rec.AttendanceDate})
		}
		days[i].Records = append(days[i].Records, rec)
	}
	for i := range days {
		days[i].Summary = Summarize(days[i].Records)
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date.Time)
	})
	return days
}

// PresentCount counts records marked PRESENT.
func PresentCount(records []Record) int {
	return Summarize(records).Present
}
