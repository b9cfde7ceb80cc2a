package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"box-schedule/backend/internal/model"
	"box-schedule/backend/internal/repository"
	"box-schedule/backend/pkg/clock"
	pkgerrors "box-schedule/backend/pkg/errors"
)

// gymZone 场馆时区（UTC-3，避免测试依赖系统 tzdata）
var gymZone = time.FixedZone("BRT", -3*60*60)

// testClock 固定在场馆时间 2026-01-10 12:00
func testClock() clock.Fixed {
	return clock.Fixed{At: time.Date(2026, 1, 10, 12, 0, 0, 0, gymZone), Loc: gymZone}
}

// mockStore 所有 mock Repository 共享的内存数据
// 预约写入在同一把锁内完成，对应数据库中的行锁事务
type mockStore struct {
	mu sync.Mutex

	users        map[string]*model.User
	templates    map[string]*model.ClassTemplate
	sessions     map[string]*model.Session
	reservations map[string]*model.Reservation // reservation_id → row
	attendance   map[string]*model.AttendanceRecord

	seq int

	// 注入故障
	failUpsertTemplate string
	failReserve        error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:        make(map[string]*model.User),
		templates:    make(map[string]*model.ClassTemplate),
		sessions:     make(map[string]*model.Session),
		reservations: make(map[string]*model.Reservation),
		attendance:   make(map[string]*model.AttendanceRecord),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

// repository 组装使用本 store 的 Repository 聚合（无底层连接，BeginTx 返回 nil 事务）
func (s *mockStore) repository() *repository.Repository {
	return &repository.Repository{
		User:          &mockUserRepo{s},
		ClassTemplate: &mockClassTemplateRepo{s},
		Session:       &mockSessionRepo{s},
		Reservation:   &mockReservationRepo{s},
		Attendance:    &mockAttendanceRepo{s},
	}
}

// ── 测试数据构造 ──

func (s *mockStore) addSession(id, date, start string, capacity int) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, _ := time.Parse("2006-01-02", date)
	session := &model.Session{
		SessionID:        id,
		TemplateID:       "tpl-" + id,
		SessionDate:      d,
		StartTime:        start,
		DurationMin:      60,
		Capacity:         capacity,
		Status:           model.SessionStatusScheduled,
		TemplateSnapshot: map[string]interface{}{"name": "WOD " + start},
		VersionedModel:   model.VersionedModel{Version: 1},
	}
	s.sessions[id] = session
	return session
}

func (s *mockStore) addTemplate(tpl model.ClassTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tpl
	s.templates[t.TemplateID] = &t
}

func (s *mockStore) activeCount(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.SessionID == sessionID && r.IsActive() {
			n++
		}
	}
	return n
}

func (s *mockStore) reservationRows(sessionID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.SessionID == sessionID && r.UserID == userID {
			n++
		}
	}
	return n
}

func attendanceKey(sessionID, userID string) string { return sessionID + ":" + userID }

// ── Mock UserRepository ──

type mockUserRepo struct{ s *mockStore }

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.User
	for _, id := range ids {
		if u, ok := m.s.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock ClassTemplateRepository ──

type mockClassTemplateRepo struct{ s *mockStore }

func (m *mockClassTemplateRepo) GetByID(_ context.Context, id string) (*model.ClassTemplate, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if t, ok := m.s.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassTemplateRepo) ListActive(_ context.Context) ([]model.ClassTemplate, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.ClassTemplate
	for _, t := range m.s.templates {
		if t.IsActive {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weekday != result[j].Weekday {
			return result[i].Weekday < result[j].Weekday
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].TemplateID < result[j].TemplateID
	})
	return result, nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct{ s *mockStore }

func (m *mockSessionRepo) UpsertDrafts(_ context.Context, sessions []model.Session) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if len(sessions) > 0 && sessions[0].TemplateID == m.s.failUpsertTemplate {
		return 0, errors.New("mock: upsert failed")
	}

	existing := make(map[string]bool, len(m.s.sessions))
	for _, sess := range m.s.sessions {
		existing[sess.TemplateID+"|"+sess.SlotKey()] = true
	}

	var created int64
	for i := range sessions {
		key := sessions[i].TemplateID + "|" + sessions[i].SlotKey()
		if existing[key] {
			continue
		}
		row := sessions[i]
		row.SessionID = m.s.nextID("ses")
		m.s.sessions[row.SessionID] = &row
		existing[key] = true
		created++
	}
	return created, nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if sess, ok := m.s.sessions[id]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListByRange(_ context.Context, from, to time.Time) ([]model.Session, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.Session
	for _, sess := range m.s.sessions {
		if !sess.SessionDate.Before(from) && sess.SessionDate.Before(to) {
			result = append(result, *sess)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].SessionDate.Equal(result[j].SessionDate) {
			return result[i].SessionDate.Before(result[j].SessionDate)
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].TemplateID < result[j].TemplateID
	})
	return result, nil
}

func (m *mockSessionRepo) UpdateStatus(_ context.Context, session *model.Session) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.sessions[session.SessionID]
	if !ok || stored.Version != session.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = session.Status
	stored.UpdatedBy = session.UpdatedBy
	stored.Version++
	session.Version = stored.Version
	return nil
}

// ── Mock ReservationRepository ──

type mockReservationRepo struct{ s *mockStore }

func (m *mockReservationRepo) Reserve(_ context.Context, sessionID, userID string, now time.Time) (*model.Reservation, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.failReserve != nil {
		return nil, false, m.s.failReserve
	}

	session, ok := m.s.sessions[sessionID]
	if !ok {
		return nil, false, gorm.ErrRecordNotFound
	}
	if session.Status != model.SessionStatusScheduled {
		return nil, false, pkgerrors.ErrSessionUnavailable
	}

	var existing *model.Reservation
	reserved := 0
	for _, r := range m.s.reservations {
		if r.SessionID == sessionID && r.UserID == userID {
			existing = r
		}
		if r.SessionID == sessionID && r.IsActive() {
			reserved++
		}
	}
	if existing != nil && existing.IsActive() {
		return nil, false, pkgerrors.ErrAlreadyBooked
	}
	for _, r := range m.s.reservations {
		if r.UserID == userID && r.SessionID != sessionID && r.IsActive() &&
			r.SessionDate.Equal(session.SessionDate) && r.StartTime == session.StartTime {
			return nil, false, pkgerrors.ErrOverlap
		}
	}
	if reserved >= session.Capacity {
		return nil, false, pkgerrors.ErrSessionFull
	}

	if existing != nil {
		existing.CancelledAt = nil
		existing.UpdatedAt = now
		cp := *existing
		return &cp, true, nil
	}

	r := &model.Reservation{
		ReservationID: m.s.nextID("res"),
		SessionID:     sessionID,
		UserID:        userID,
		SessionDate:   session.SessionDate,
		StartTime:     session.StartTime,
		CreatedAt:     now.Add(time.Duration(m.s.seq) * time.Millisecond),
		UpdatedAt:     now,
	}
	m.s.reservations[r.ReservationID] = r
	cp := *r
	return &cp, false, nil
}

func (m *mockReservationRepo) Cancel(_ context.Context, sessionID, userID string, now time.Time) (*model.Reservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.reservations {
		if r.SessionID == sessionID && r.UserID == userID && r.IsActive() {
			t := now
			r.CancelledAt = &t
			r.UpdatedAt = now
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) CountActiveBySessions(_ context.Context, sessionIDs []string) (map[string]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	counts := make(map[string]int)
	for _, r := range m.s.reservations {
		if want[r.SessionID] && r.IsActive() {
			counts[r.SessionID]++
		}
	}
	return counts, nil
}

func (m *mockReservationRepo) ListByUserAndSessions(_ context.Context, userID string, sessionIDs []string) ([]model.Reservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	var result []model.Reservation
	for _, r := range m.s.reservations {
		if r.UserID == userID && want[r.SessionID] {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReservationRepo) ListActiveBySession(_ context.Context, sessionID string) ([]model.Reservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.Reservation
	for _, r := range m.s.reservations {
		if r.SessionID == sessionID && r.IsActive() {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockReservationRepo) ListActiveByUserInRange(ctx context.Context, userID string, from, to time.Time) ([]model.Reservation, error) {
	all, err := m.ListActiveInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var result []model.Reservation
	for _, r := range all {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReservationRepo) ListActiveInRange(_ context.Context, from, to time.Time) ([]model.Reservation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.Reservation
	for _, r := range m.s.reservations {
		if !r.IsActive() || r.SessionDate.Before(from) || !r.SessionDate.Before(to) {
			continue
		}
		cp := *r
		if sess, ok := m.s.sessions[r.SessionID]; ok {
			sc := *sess
			cp.Session = &sc
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].SessionDate.Equal(result[j].SessionDate) {
			return result[i].SessionDate.Before(result[j].SessionDate)
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct{ s *mockStore }

func (m *mockAttendanceRepo) Upsert(_ context.Context, record *model.AttendanceRecord) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := attendanceKey(record.SessionID, record.UserID)
	if existing, ok := m.s.attendance[key]; ok {
		existing.Status = record.Status
		existing.MarkedBy = record.MarkedBy
		existing.MarkedAt = record.MarkedAt
		return nil
	}
	rec := *record
	rec.AttendanceID = m.s.nextID("att")
	m.s.attendance[key] = &rec
	return nil
}

func (m *mockAttendanceRepo) DeleteBySession(_ context.Context, sessionID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for key, rec := range m.s.attendance {
		if rec.SessionID == sessionID {
			delete(m.s.attendance, key)
			n++
		}
	}
	return n, nil
}

func (m *mockAttendanceRepo) ListBySessions(_ context.Context, sessionIDs []string) ([]model.AttendanceRecord, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	var result []model.AttendanceRecord
	for _, rec := range m.s.attendance {
		if want[rec.SessionID] {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByUserAndSessions(ctx context.Context, userID string, sessionIDs []string) ([]model.AttendanceRecord, error) {
	all, err := m.ListBySessions(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}
	var result []model.AttendanceRecord
	for _, rec := range all {
		if rec.UserID == userID {
			result = append(result, rec)
		}
	}
	return result, nil
}
