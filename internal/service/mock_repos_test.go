package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/repository"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
)

// ── 内存存储 ──
// 所有 mock repo 共享一个 memStore，PromoteDraft 等跨表操作才有一致语义

type memStore struct {
	mu          sync.Mutex
	drafts      map[string]*model.Draft
	deleted     map[string]bool
	volunteers  map[string]*model.Volunteer
	studies     map[string]*model.Study
	assignments []*model.StudyAssignment
	events      []model.AttendanceEvent
	seq         int64

	// 故障注入
	errLookup error // Volunteer/Draft 的 FindBy* 返回该错误
	errAppend error // Attendance.Append 返回该错误

	appendCalls int
	lookupCalls int
}

func newMemStore() *memStore {
	return &memStore{
		drafts:     make(map[string]*model.Draft),
		deleted:    make(map[string]bool),
		volunteers: make(map[string]*model.Volunteer),
		studies:    make(map[string]*model.Study),
	}
}

func newMockRepository() (*repository.Repository, *memStore) {
	st := newMemStore()
	return &repository.Repository{
		Draft:      &mockDraftRepo{st: st},
		Volunteer:  &mockVolunteerRepo{st: st},
		Study:      &mockStudyRepo{st: st},
		Assignment: &mockAssignmentRepo{st: st},
		Attendance: &mockAttendanceRepo{st: st},
		Sync:       &mockSyncRepo{st: st},
	}, st
}

// ── 测试数据辅助 ──

func (st *memStore) addVolunteer(name, contact, status string) *model.Volunteer {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	v := &model.Volunteer{
		VolunteerID:    uuid.NewString(),
		Name:           name,
		Contact:        contact,
		ApprovalStatus: status,
	}
	v.Version = 1
	v.CreatedAt, v.UpdatedAt = now, now
	st.volunteers[v.VolunteerID] = v
	return v
}

func (st *memStore) addStudy(code, start string, end string) *model.Study {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := &model.Study{StudyCode: code, Name: "Study " + code}
	s.StartDate, _ = model.ParseDate(start)
	if end != "" {
		e, _ := model.ParseDate(end)
		s.EndDate = &e
	}
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	st.studies[code] = s
	return s
}

func (st *memStore) assign(volunteerID, code, visit string) {
	a := &model.StudyAssignment{
		AssignmentID: uuid.NewString(),
		VolunteerID:  volunteerID,
		StudyCode:    code,
	}
	if visit != "" {
		d, _ := model.ParseDate(visit)
		a.ScheduledVisitDate = &d
	}
	st.mu.Lock()
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	st.assignments = append(st.assignments, a)
	st.mu.Unlock()
}

func (st *memStore) eventsFor(volunteerID string) []model.AttendanceEvent {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []model.AttendanceEvent
	for _, e := range st.events {
		if e.VolunteerID == volunteerID {
			out = append(out, e)
		}
	}
	return out
}

// ── Mock DraftRepository ──

type mockDraftRepo struct{ st *memStore }

func (m *mockDraftRepo) Create(_ context.Context, d *model.Draft) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if d.DraftID == "" {
		d.DraftID = uuid.NewString()
	}
	d.CreatedAt, d.UpdatedAt = time.Now(), time.Now()
	m.st.drafts[d.DraftID] = d
	return nil
}

func (m *mockDraftRepo) GetByID(_ context.Context, id string) (*model.Draft, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if d, ok := m.st.drafts[id]; ok && !m.st.deleted[id] {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDraftRepo) FindByContact(_ context.Context, contact string) (*model.Draft, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.lookupCalls++
	if m.st.errLookup != nil {
		return nil, m.st.errLookup
	}
	for id, d := range m.st.drafts {
		if d.Contact == contact && !m.st.deleted[id] {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDraftRepo) List(_ context.Context, offset, limit int) ([]model.Draft, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var all []model.Draft
	for id, d := range m.st.drafts {
		if !m.st.deleted[id] {
			all = append(all, *d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockDraftRepo) Delete(_ context.Context, id string, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.drafts[id]; !ok || m.st.deleted[id] {
		return gorm.ErrRecordNotFound
	}
	m.st.deleted[id] = true
	return nil
}

// ── Mock VolunteerRepository ──

type mockVolunteerRepo struct{ st *memStore }

func (m *mockVolunteerRepo) create(v *model.Volunteer) {
	if v.VolunteerID == "" {
		v.VolunteerID = uuid.NewString()
	}
	v.Version = 1
	v.CreatedAt, v.UpdatedAt = time.Now(), time.Now()
	m.st.volunteers[v.VolunteerID] = v
}

func (m *mockVolunteerRepo) Create(_ context.Context, v *model.Volunteer) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.create(v)
	return nil
}

func (m *mockVolunteerRepo) GetByID(_ context.Context, id string) (*model.Volunteer, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if v, ok := m.st.volunteers[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVolunteerRepo) ListByIDs(_ context.Context, ids []string) ([]model.Volunteer, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Volunteer
	for _, id := range ids {
		if v, ok := m.st.volunteers[id]; ok {
			out = append(out, *v)
		}
	}
	sortVolunteers(out)
	return out, nil
}

func (m *mockVolunteerRepo) ListApproved(_ context.Context) ([]model.Volunteer, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Volunteer
	for _, v := range m.st.volunteers {
		if v.IsApproved() {
			out = append(out, *v)
		}
	}
	sortVolunteers(out)
	return out, nil
}

func sortVolunteers(vs []model.Volunteer) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Name != vs[j].Name {
			return vs[i].Name < vs[j].Name
		}
		return vs[i].VolunteerID < vs[j].VolunteerID
	})
}

func (m *mockVolunteerRepo) FindByContact(_ context.Context, contact string) (*model.Volunteer, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.lookupCalls++
	if m.st.errLookup != nil {
		return nil, m.st.errLookup
	}
	for _, v := range m.st.volunteers {
		if v.Contact == contact {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVolunteerRepo) FindByIDProof(_ context.Context, idProof string) (*model.Volunteer, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.lookupCalls++
	if m.st.errLookup != nil {
		return nil, m.st.errLookup
	}
	for _, v := range m.st.volunteers {
		if v.IDProofNumber != nil && *v.IDProofNumber == idProof {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVolunteerRepo) UpdateStatus(_ context.Context, v *model.Volunteer) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	cur, ok := m.st.volunteers[v.VolunteerID]
	if !ok || cur.Version != v.Version {
		return pkgerrors.ErrOptimisticLock
	}
	v.Version++
	v.UpdatedAt = time.Now()
	cp := *v
	m.st.volunteers[v.VolunteerID] = &cp
	return nil
}

func (m *mockVolunteerRepo) PromoteDraft(_ context.Context, v *model.Volunteer, draftID, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.drafts[draftID]; !ok || m.st.deleted[draftID] {
		return gorm.ErrRecordNotFound
	}
	m.st.deleted[draftID] = true
	v.SourceDraftID = &draftID
	m.create(v)
	return nil
}

// ── Mock StudyRepository ──

type mockStudyRepo struct{ st *memStore }

func (m *mockStudyRepo) Create(_ context.Context, s *model.Study) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	m.st.studies[s.StudyCode] = s
	return nil
}

func (m *mockStudyRepo) GetByCode(_ context.Context, code string) (*model.Study, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if s, ok := m.st.studies[code]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudyRepo) List(_ context.Context) ([]model.Study, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Study
	for _, s := range m.st.studies {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudyCode < out[j].StudyCode })
	return out, nil
}

func (m *mockStudyRepo) ListActive(_ context.Context, today datatypes.Date) ([]model.Study, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Study
	for _, s := range m.st.studies {
		if s.IsOngoing(today) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudyCode < out[j].StudyCode })
	return out, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ st *memStore }

func (m *mockAssignmentRepo) Upsert(_ context.Context, a *model.StudyAssignment) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, cur := range m.st.assignments {
		if cur.VolunteerID == a.VolunteerID && cur.StudyCode == a.StudyCode {
			cur.ScheduledVisitDate = a.ScheduledVisitDate
			cur.UpdatedAt = time.Now()
			a.AssignmentID = cur.AssignmentID
			return nil
		}
	}
	a.AssignmentID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	cp := *a
	m.st.assignments = append(m.st.assignments, &cp)
	return nil
}

func (m *mockAssignmentRepo) filter(keep func(a *model.StudyAssignment) bool) []model.StudyAssignment {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.StudyAssignment
	for _, a := range m.st.assignments {
		if keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (m *mockAssignmentRepo) ListByStudy(_ context.Context, code string) ([]model.StudyAssignment, error) {
	return m.filter(func(a *model.StudyAssignment) bool { return a.StudyCode == code }), nil
}

func (m *mockAssignmentRepo) ListByStudies(_ context.Context, codes []string) ([]model.StudyAssignment, error) {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return m.filter(func(a *model.StudyAssignment) bool { return set[a.StudyCode] }), nil
}

func (m *mockAssignmentRepo) ListScheduledOn(_ context.Context, day datatypes.Date) ([]model.StudyAssignment, error) {
	return m.filter(func(a *model.StudyAssignment) bool { return a.IsScheduledOn(day) }), nil
}

func (m *mockAssignmentRepo) ListScheduledForVolunteer(_ context.Context, volunteerID string, day datatypes.Date) ([]model.StudyAssignment, error) {
	return m.filter(func(a *model.StudyAssignment) bool {
		return a.VolunteerID == volunteerID && a.IsScheduledOn(day)
	}), nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct{ st *memStore }

func (m *mockAttendanceRepo) Append(_ context.Context, e *model.AttendanceEvent) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.appendCalls++
	if m.st.errAppend != nil {
		return m.st.errAppend
	}
	m.st.seq++
	e.Seq = m.st.seq
	m.st.events = append(m.st.events, *e)
	return nil
}

func (m *mockAttendanceRepo) latest(ids []string, keep func(e *model.AttendanceEvent) bool) []model.AttendanceEvent {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	type key struct{ vid, scope string }
	best := make(map[key]model.AttendanceEvent)
	for _, e := range m.st.events {
		if !want[e.VolunteerID] || !keep(&e) {
			continue
		}
		k := key{e.VolunteerID, e.ScopeKey()}
		if cur, ok := best[k]; !ok || e.Seq > cur.Seq {
			best[k] = e
		}
	}
	out := make([]model.AttendanceEvent, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	return out
}

func (m *mockAttendanceRepo) LatestByScope(_ context.Context, ids []string, studyCode *string) ([]model.AttendanceEvent, error) {
	return m.latest(ids, func(e *model.AttendanceEvent) bool { return model.SameScope(e.StudyCode, studyCode) }), nil
}

func (m *mockAttendanceRepo) LatestPerScope(_ context.Context, ids []string) ([]model.AttendanceEvent, error) {
	return m.latest(ids, func(*model.AttendanceEvent) bool { return true }), nil
}

func (m *mockAttendanceRepo) ListByVolunteer(_ context.Context, volunteerID string, limit int) ([]model.AttendanceEvent, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.AttendanceEvent
	for i := len(m.st.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.st.events[i].VolunteerID == volunteerID {
			out = append(out, m.st.events[i])
		}
	}
	return out, nil
}

// WithVolunteerLock 进程内的串行化由 keylock 负责，这里只模拟行锁的存在性检查
func (m *mockAttendanceRepo) WithVolunteerLock(_ context.Context, volunteerID string, fn func(tx repository.AttendanceRepository, v *model.Volunteer) error) error {
	m.st.mu.Lock()
	v, ok := m.st.volunteers[volunteerID]
	var cp model.Volunteer
	if ok {
		cp = *v
	}
	m.st.mu.Unlock()
	if !ok {
		return gorm.ErrRecordNotFound
	}
	return fn(m, &cp)
}

// ── Mock SyncRepository ──

type mockSyncRepo struct{ st *memStore }

func (m *mockSyncRepo) Watermark(_ context.Context) (*repository.Watermark, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	w := &repository.Watermark{AttendanceSeq: m.st.seq}
	maxTime := func(cur *time.Time, t time.Time) *time.Time {
		if cur == nil || t.After(*cur) {
			return &t
		}
		return cur
	}
	for _, v := range m.st.volunteers {
		w.VolunteersAt = maxTime(w.VolunteersAt, v.UpdatedAt)
	}
	for _, a := range m.st.assignments {
		w.AssignmentsAt = maxTime(w.AssignmentsAt, a.UpdatedAt)
	}
	for _, s := range m.st.studies {
		w.StudiesAt = maxTime(w.StudiesAt, s.UpdatedAt)
	}
	return w, nil
}
