package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
	pkgerrors "classroom-reservation/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TermRepository ──

type mockTermRepo struct {
	terms map[string]*model.AcademicTerm
}

func newMockTermRepo() *mockTermRepo {
	return &mockTermRepo{terms: make(map[string]*model.AcademicTerm)}
}

func (m *mockTermRepo) Create(_ context.Context, term *model.AcademicTerm) error {
	if term.TermID == "" {
		term.TermID = "term-" + term.Name
	}
	m.terms[term.TermID] = term
	return nil
}

func (m *mockTermRepo) GetByID(_ context.Context, id string) (*model.AcademicTerm, error) {
	if t, ok := m.terms[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) GetActive(_ context.Context) (*model.AcademicTerm, error) {
	for _, t := range m.terms {
		if t.IsActive {
			c := *t
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) List(_ context.Context, search string) ([]model.AcademicTerm, error) {
	var result []model.AcademicTerm
	for _, t := range m.terms {
		if search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(search)) {
			continue
		}
		result = append(result, *t)
	}
	slices.SortFunc(result, func(a, b model.AcademicTerm) int { return b.StartDate.Compare(a.StartDate) })
	return result, nil
}

// Update 模拟部分唯一索引：同时只能有一个激活学期
func (m *mockTermRepo) Update(_ context.Context, term *model.AcademicTerm) error {
	if term.IsActive {
		for id, t := range m.terms {
			if id != term.TermID && t.IsActive {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	c := *term
	m.terms[term.TermID] = &c
	return nil
}

func (m *mockTermRepo) Delete(_ context.Context, id string) error {
	delete(m.terms, id)
	return nil
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	classrooms map[string]*model.Classroom
	locks      int
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{classrooms: make(map[string]*model.Classroom)}
}

func (m *mockClassroomRepo) Create(_ context.Context, classroom *model.Classroom) error {
	for _, c := range m.classrooms {
		if strings.EqualFold(c.Name, classroom.Name) {
			return gorm.ErrDuplicatedKey
		}
	}
	if classroom.ClassroomID == "" {
		classroom.ClassroomID = "room-" + classroom.Name
	}
	m.classrooms[classroom.ClassroomID] = classroom
	return nil
}

func (m *mockClassroomRepo) GetByID(_ context.Context, id string) (*model.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) GetByName(_ context.Context, name string) (*model.Classroom, error) {
	for _, c := range m.classrooms {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) LockByID(ctx context.Context, id string) (*model.Classroom, error) {
	m.locks++
	return m.GetByID(ctx, id)
}

func (m *mockClassroomRepo) List(_ context.Context, filter repository.ClassroomFilter) ([]repository.ClassroomStat, int64, error) {
	var all []repository.ClassroomStat
	for _, c := range m.classrooms {
		if filter.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Name)) {
			continue
		}
		all = append(all, repository.ClassroomStat{Classroom: *c})
	}
	slices.SortFunc(all, func(a, b repository.ClassroomStat) int { return strings.Compare(a.Name, b.Name) })

	total := int64(len(all))
	start := min(filter.Offset, len(all))
	end := len(all)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(all))
	}
	return all[start:end], total, nil
}

func (m *mockClassroomRepo) GetStat(_ context.Context, id string) (*repository.ClassroomStat, error) {
	c, ok := m.classrooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &repository.ClassroomStat{Classroom: *c}, nil
}

// ── Mock ReservationRepository ──

// mockReservationRepo 存储副本，模拟数据库读写隔离与 version 乐观锁
type mockReservationRepo struct {
	items      map[string]*model.Reservation
	seq        int
	forceStale bool
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{items: make(map[string]*model.Reservation)}
}

func cloneReservation(r *model.Reservation) *model.Reservation {
	c := *r
	return &c
}

func (m *mockReservationRepo) Create(_ context.Context, r *model.Reservation) error {
	if r.ReservationID == "" {
		m.seq++
		r.ReservationID = fmt.Sprintf("res-%03d", m.seq)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Version == 0 {
		r.Version = 1
	}
	m.items[r.ReservationID] = cloneReservation(r)
	return nil
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := m.items[id]; ok {
		return cloneReservation(r), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) GetShadow(_ context.Context, originalID string) (*model.Reservation, error) {
	for _, r := range m.items {
		if r.Status == booking.StatusModificationPending && r.RelatedReservationID != nil && *r.RelatedReservationID == originalID {
			return cloneReservation(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) ListByClassroomWeekday(_ context.Context, classroomID string, weekday int) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.sorted() {
		if r.ClassroomID == classroomID && r.DayOfWeek == weekday {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReservationRepo) UpdateStatus(_ context.Context, r *model.Reservation) error {
	stored, ok := m.items[r.ReservationID]
	if !ok || m.forceStale || stored.Version != r.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = r.Status
	stored.UpdatedBy = r.UpdatedBy
	stored.Version++
	r.Version++
	return nil
}

func (m *mockReservationRepo) ListByInstructor(_ context.Context, instructorID string, exclude []booking.Status) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.sorted() {
		if r.InstructorID != instructorID || slices.Contains(exclude, r.Status) {
			continue
		}
		result = append(result, r)
	}
	slices.SortStableFunc(result, func(a, b model.Reservation) int { return b.TermStart.Compare(a.TermStart) })
	return result, nil
}

func (m *mockReservationRepo) ListQueue(_ context.Context, filter repository.QueueFilter) ([]model.Reservation, int64, error) {
	var all []model.Reservation
	for _, r := range m.sorted() {
		if r.Status == booking.StatusCancelled {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		all = append(all, r)
	}
	// 与 SQL 的 ORDER BY 一致：按队列权重、学期开始日期升序
	slices.SortStableFunc(all, func(a, b model.Reservation) int {
		if ra, rb := booking.QueueRank(a.Status), booking.QueueRank(b.Status); ra != rb {
			return ra - rb
		}
		return a.TermStart.Compare(b.TermStart)
	})

	total := int64(len(all))
	start := min(filter.Offset, len(all))
	end := len(all)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(all))
	}
	return all[start:end], total, nil
}

func (m *mockReservationRepo) ListVisible(_ context.Context, viewerID string) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.sorted() {
		own := r.InstructorID == viewerID &&
			(r.Status == booking.StatusPending || r.Status == booking.StatusModificationPending)
		if r.Status == booking.StatusApproved || own {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReservationRepo) ListApprovedInRange(_ context.Context, start, end time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.sorted() {
		if r.Status == booking.StatusApproved && !r.TermStart.After(end) && !r.TermEnd.Before(start) {
			result = append(result, r)
		}
	}
	return result, nil
}

// sorted 按 ID 排序，避免 map 遍历顺序导致结果不稳定
func (m *mockReservationRepo) sorted() []model.Reservation {
	out := make([]model.Reservation, 0, len(m.items))
	for _, r := range m.items {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b model.Reservation) int { return strings.Compare(a.ReservationID, b.ReservationID) })
	return out
}

// ── Mock FeedbackRepository ──

type mockFeedbackRepo struct {
	feedbacks    []*model.Feedback
	reservations *mockReservationRepo
}

func newMockFeedbackRepo(reservations *mockReservationRepo) *mockFeedbackRepo {
	return &mockFeedbackRepo{reservations: reservations}
}

func (m *mockFeedbackRepo) Create(_ context.Context, f *model.Feedback) error {
	if f.FeedbackID == "" {
		f.FeedbackID = fmt.Sprintf("fb-%03d", len(m.feedbacks)+1)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	m.feedbacks = append(m.feedbacks, f)
	return nil
}

func (m *mockFeedbackRepo) ListByClassroom(_ context.Context, classroomID string) ([]model.Feedback, error) {
	var result []model.Feedback
	for _, f := range m.feedbacks {
		r, ok := m.reservations.items[f.ReservationID]
		if !ok || r.ClassroomID != classroomID {
			continue
		}
		result = append(result, *f)
	}
	slices.SortFunc(result, func(a, b model.Feedback) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return result, nil
}

// ── Mock 协作者 ──

type rejection struct {
	ReservationID string
	Reason        string
}

// mockNotifier 同步记录通知，便于断言
type mockNotifier struct {
	mu         sync.Mutex
	approvals  []string
	rejections []rejection
	holidays   map[string][]time.Time
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{holidays: make(map[string][]time.Time)}
}

func (n *mockNotifier) NotifyApproval(_ context.Context, r *model.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvals = append(n.approvals, r.ReservationID)
}

func (n *mockNotifier) NotifyRejection(_ context.Context, r *model.Reservation, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejections = append(n.rejections, rejection{ReservationID: r.ReservationID, Reason: reason})
}

func (n *mockNotifier) NotifyHolidayConflict(_ context.Context, r *model.Reservation, dates []time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.holidays[r.ReservationID] = dates
}

type mockHolidaySource struct {
	holidays []time.Time
	err      error
	calls    int
}

func (s *mockHolidaySource) HolidaysInRange(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	var out []time.Time
	for _, h := range s.holidays {
		if !h.Before(start) && !h.After(end) {
			out = append(out, h)
		}
	}
	return out, nil
}

type mockHolidayCache struct {
	data map[string][]time.Time
}

func newMockHolidayCache() *mockHolidayCache {
	return &mockHolidayCache{data: make(map[string][]time.Time)}
}

func (c *mockHolidayCache) GetHolidays(_ context.Context, key string) ([]time.Time, bool, error) {
	h, ok := c.data[key]
	return h, ok, nil
}

func (c *mockHolidayCache) SetHolidays(_ context.Context, key string, holidays []time.Time, _ time.Duration) error {
	c.data[key] = holidays
	return nil
}

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func (b *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if b.tokens == nil {
		b.tokens = make(map[string]time.Duration)
	}
	b.tokens[jti] = ttl
	return nil
}

func (b *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.tokens[jti]
	return ok, nil
}

// ── 测试环境 ──

type testEnv struct {
	users        *mockUserRepo
	terms        *mockTermRepo
	classrooms   *mockClassroomRepo
	reservations *mockReservationRepo
	feedbacks    *mockFeedbackRepo
	repo         *repository.Repository
	notifier     *mockNotifier
	source       *mockHolidaySource
}

func newTestEnv() *testEnv {
	reservations := newMockReservationRepo()
	env := &testEnv{
		users:        newMockUserRepo(),
		terms:        newMockTermRepo(),
		classrooms:   newMockClassroomRepo(),
		reservations: reservations,
		feedbacks:    newMockFeedbackRepo(reservations),
		notifier:     newMockNotifier(),
		source:       &mockHolidaySource{},
	}
	env.repo = &repository.Repository{
		User:        env.users,
		Term:        env.terms,
		Classroom:   env.classrooms,
		Reservation: env.reservations,
		Feedback:    env.feedbacks,
	}
	return env
}

func day(s string) time.Time {
	d, err := booking.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func hm(s string) booking.TimeOfDay {
	t, err := booking.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (e *testEnv) seedActiveTerm(start, end string) *model.AcademicTerm {
	term := &model.AcademicTerm{
		TermID:    "term-active",
		Name:      "2025秋季学期",
		StartDate: day(start),
		EndDate:   day(end),
		IsActive:  true,
	}
	e.terms.terms[term.TermID] = term
	return term
}

func (e *testEnv) seedClassroom(id, name string) *model.Classroom {
	c := &model.Classroom{ClassroomID: id, Name: name, Capacity: 40}
	e.classrooms.classrooms[id] = c
	return c
}

func (e *testEnv) seedUser(id, role string) *model.User {
	u := &model.User{UserID: id, Name: id, Email: id + "@example.com", Role: role}
	e.users.users[id] = u
	return u
}

// seedReservation 直接写入一条预约（学期 2025-09-01 ~ 2026-01-20）
func (e *testEnv) seedReservation(id, instructorID, classroomID string, weekday int, start, end string, status booking.Status) *model.Reservation {
	r := &model.Reservation{
		ReservationID: id,
		InstructorID:  instructorID,
		ClassroomID:   classroomID,
		TermStart:     day("2025-09-01"),
		TermEnd:       day("2026-01-20"),
		DayOfWeek:     weekday,
		StartTime:     hm(start),
		EndTime:       hm(end),
		Activity:      "数据结构",
		Status:        status,
	}
	_ = e.reservations.Create(context.Background(), r)
	return r
}

func (e *testEnv) status(id string) booking.Status {
	return e.reservations.items[id].Status
}
