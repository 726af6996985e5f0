package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physed-journal-api/internal/models"
	"github.com/noah-isme/physed-journal-api/internal/repository"
	"github.com/noah-isme/physed-journal-api/pkg/clock"
	"github.com/noah-isme/physed-journal-api/pkg/config"
	"github.com/noah-isme/physed-journal-api/pkg/database"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (database.TxProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (p *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

// fakeJournal is an in-memory stand-in for every journal table.
type fakeJournal struct {
	mu        sync.Mutex
	nextID    int64
	students  map[string]models.StudentLedger
	teachers  map[string]models.Teacher
	semesters []models.Semester
	visits    map[int64]models.VisitRecord
	points    map[int64]models.PointRecord
	standards map[int64]models.StandardRecord
	archives  []models.ArchivedStudent
	groups    map[string]models.Group

	// conflicts makes the next N ledger updates fail the version check.
	conflicts int
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{
		students:  make(map[string]models.StudentLedger),
		teachers:  make(map[string]models.Teacher),
		visits:    make(map[int64]models.VisitRecord),
		points:    make(map[int64]models.PointRecord),
		standards: make(map[int64]models.StandardRecord),
		groups:    make(map[string]models.Group),
	}
}

func (j *fakeJournal) id() int64 {
	j.nextID++
	return j.nextID
}

func (j *fakeJournal) addStudent(l models.StudentLedger) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if l.Version == 0 {
		l.Version = 1
	}
	j.students[l.StudentGUID] = l
}

func (j *fakeJournal) student(guid string) models.StudentLedger {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.students[guid]
}

func (j *fakeJournal) addTeacher(guid string, perms models.TeacherPermission) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.teachers[guid] = models.Teacher{TeacherGUID: guid, FullName: guid, Permissions: perms}
}

func (j *fakeJournal) seedPoints(r models.PointRecord) int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	r.ID = j.id()
	j.points[r.ID] = r
	return r.ID
}

func (j *fakeJournal) seedVisit(r models.VisitRecord) int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	r.ID = j.id()
	j.visits[r.ID] = r
	return r.ID
}

func (j *fakeJournal) seedStandard(r models.StandardRecord) int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	r.ID = j.id()
	j.standards[r.ID] = r
	return r.ID
}

type fakeStudents struct{ j *fakeJournal }

func (f fakeStudents) FindLedger(ctx context.Context, guid string) (*models.StudentLedger, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	l, ok := f.j.students[guid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (f fakeStudents) UpdateLedger(ctx context.Context, exec sqlx.ExtContext, s *models.Student) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	stored, ok := f.j.students[s.StudentGUID]
	if !ok || stored.Version != s.Version || f.j.conflicts > 0 {
		if f.j.conflicts > 0 {
			f.j.conflicts--
		}
		return repository.ErrVersionConflict
	}
	s.Version++
	stored.Student = *s
	f.j.students[s.StudentGUID] = stored
	return nil
}

func (f fakeStudents) ListGUIDs(ctx context.Context, filter models.StudentFilter) ([]string, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	var guids []string
	for guid, l := range f.j.students {
		if filter.ActiveOnly && !l.IsActive {
			continue
		}
		if filter.WithDebt != nil && l.HasDebtFromPreviousSemester != *filter.WithDebt {
			continue
		}
		if filter.ExcludeSemester != "" && l.CurrentSemesterName == filter.ExcludeSemester {
			continue
		}
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	return guids, nil
}

func (f fakeStudents) SetActive(ctx context.Context, guid string, active bool) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	l, ok := f.j.students[guid]
	if !ok {
		return sql.ErrNoRows
	}
	l.IsActive = active
	f.j.students[guid] = l
	return nil
}

type fakeTeachers struct{ j *fakeJournal }

func (f fakeTeachers) UpdatePermissions(ctx context.Context, guid string, perms models.TeacherPermission) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	t, ok := f.j.teachers[guid]
	if !ok {
		return sql.ErrNoRows
	}
	t.Permissions = perms
	f.j.teachers[guid] = t
	return nil
}

func (f fakeTeachers) FindByGUID(ctx context.Context, guid string) (*models.Teacher, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	t, ok := f.j.teachers[guid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

type fakeVisits struct{ j *fakeJournal }

func (f fakeVisits) Create(ctx context.Context, exec sqlx.ExtContext, r *models.VisitRecord) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	r.ID = f.j.id()
	f.j.visits[r.ID] = *r
	return nil
}

func (f fakeVisits) FindByID(ctx context.Context, id int64) (*models.VisitRecord, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	r, ok := f.j.visits[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (f fakeVisits) ExistsOnDate(ctx context.Context, guid string, date time.Time) (bool, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for _, r := range f.j.visits {
		if r.StudentGUID == guid && r.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeVisits) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	if _, ok := f.j.visits[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.j.visits, id)
	return nil
}

func (f fakeVisits) ListByStudent(ctx context.Context, exec sqlx.ExtContext, guid string) ([]models.VisitRecord, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	var out []models.VisitRecord
	for _, r := range f.j.visits {
		if r.StudentGUID == guid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.Before(out[b].Date)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (f fakeVisits) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for _, id := range ids {
		delete(f.j.visits, id)
	}
	return nil
}

func (f fakeVisits) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, guid string) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for id, r := range f.j.visits {
		if r.StudentGUID == guid {
			delete(f.j.visits, id)
		}
	}
	return nil
}

type fakePoints struct{ j *fakeJournal }

func (f fakePoints) Create(ctx context.Context, exec sqlx.ExtContext, r *models.PointRecord) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	r.ID = f.j.id()
	f.j.points[r.ID] = *r
	return nil
}

func (f fakePoints) FindByID(ctx context.Context, id int64) (*models.PointRecord, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	r, ok := f.j.points[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (f fakePoints) CountByWorkType(ctx context.Context, guid string, wt models.WorkType) (int, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	count := 0
	for _, r := range f.j.points {
		if r.StudentGUID == guid && r.WorkType == wt {
			count++
		}
	}
	return count, nil
}

func (f fakePoints) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	if _, ok := f.j.points[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.j.points, id)
	return nil
}

func (f fakePoints) ListByStudent(ctx context.Context, exec sqlx.ExtContext, guid string) ([]models.PointRecord, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	var out []models.PointRecord
	for _, r := range f.j.points {
		if r.StudentGUID == guid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.Before(out[b].Date)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (f fakePoints) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for _, id := range ids {
		delete(f.j.points, id)
	}
	return nil
}

func (f fakePoints) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, guid string) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for id, r := range f.j.points {
		if r.StudentGUID == guid {
			delete(f.j.points, id)
		}
	}
	return nil
}

func (f fakePoints) sum(guid string) int {
	records, _ := f.ListByStudent(context.Background(), nil, guid)
	total := 0
	for _, r := range records {
		total += r.Points
	}
	return total
}

type fakeStandards struct{ j *fakeJournal }

func (f fakeStandards) Create(ctx context.Context, exec sqlx.ExtContext, r *models.StandardRecord) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	r.ID = f.j.id()
	f.j.standards[r.ID] = *r
	return nil
}

func (f fakeStandards) FindByID(ctx context.Context, id int64) (*models.StandardRecord, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	r, ok := f.j.standards[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (f fakeStandards) MaxByType(ctx context.Context, guid string, st models.StandardType) (int, bool, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	best, found := 0, false
	for _, r := range f.j.standards {
		if r.StudentGUID == guid && r.StandardType == st {
			if !found || r.Points > best {
				best = r.Points
			}
			found = true
		}
	}
	return best, found, nil
}

func (f fakeStandards) SumByStudent(ctx context.Context, exec sqlx.ExtContext, guid string) (int, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	total := 0
	for _, r := range f.j.standards {
		if r.StudentGUID == guid {
			total += r.Points
		}
	}
	return total, nil
}

func (f fakeStandards) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	if _, ok := f.j.standards[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.j.standards, id)
	return nil
}

func (f fakeStandards) DeleteByType(ctx context.Context, exec sqlx.ExtContext, guid string, st models.StandardType) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for id, r := range f.j.standards {
		if r.StudentGUID == guid && r.StandardType == st {
			delete(f.j.standards, id)
		}
	}
	return nil
}

func (f fakeStandards) ListByStudent(ctx context.Context, exec sqlx.ExtContext, guid string) ([]models.StandardRecord, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	var out []models.StandardRecord
	for _, r := range f.j.standards {
		if r.StudentGUID == guid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.Before(out[b].Date)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (f fakeStandards) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for _, id := range ids {
		delete(f.j.standards, id)
	}
	return nil
}

func (f fakeStandards) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, guid string) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for id, r := range f.j.standards {
		if r.StudentGUID == guid {
			delete(f.j.standards, id)
		}
	}
	return nil
}

func (f fakeStandards) count(guid string) int {
	records, _ := f.ListByStudent(context.Background(), nil, guid)
	return len(records)
}

type fakeArchives struct{ j *fakeJournal }

func (f fakeArchives) Create(ctx context.Context, exec sqlx.ExtContext, a *models.ArchivedStudent) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	a.ID = f.j.id()
	f.j.archives = append(f.j.archives, *a)
	return nil
}

func (f fakeArchives) ListByStudent(ctx context.Context, guid string) ([]models.ArchivedStudent, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	var out []models.ArchivedStudent
	for _, a := range f.j.archives {
		if a.StudentGUID == guid {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeArchives) FindLatest(ctx context.Context, guid, semester string) (*models.ArchivedStudent, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for i := len(f.j.archives) - 1; i >= 0; i-- {
		if a := f.j.archives[i]; a.StudentGUID == guid && a.SemesterName == semester {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeArchives) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for i, a := range f.j.archives {
		if a.ID == id {
			f.j.archives = append(f.j.archives[:i], f.j.archives[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeGroups struct{ j *fakeJournal }

func (f fakeGroups) FindByName(ctx context.Context, name string) (*models.Group, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	g, ok := f.j.groups[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (f fakeGroups) UpdateVisitValue(ctx context.Context, name string, value float64) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	g, ok := f.j.groups[name]
	if !ok {
		return sql.ErrNoRows
	}
	g.VisitValue = value
	f.j.groups[name] = g
	for guid, l := range f.j.students {
		if l.GroupNumber == name {
			l.VisitValue = value
			f.j.students[guid] = l
		}
	}
	return nil
}

func (f fakeGroups) UpdateCurator(ctx context.Context, name, curator string) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	g, ok := f.j.groups[name]
	if !ok {
		return sql.ErrNoRows
	}
	g.CuratorGUID = &curator
	f.j.groups[name] = g
	for guid, l := range f.j.students {
		if l.GroupNumber == name {
			l.CuratorGUID = &curator
			f.j.students[guid] = l
		}
	}
	return nil
}

func (f fakeGroups) ListMembers(ctx context.Context, name string) ([]models.GroupMember, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	var members []models.GroupMember
	for guid, l := range f.j.students {
		if l.GroupNumber == name {
			members = append(members, models.GroupMember{StudentGUID: guid, FullName: l.FullName})
		}
	}
	sort.Slice(members, func(a, b int) bool { return members[a].StudentGUID < members[b].StudentGUID })
	return members, nil
}

type fakeSemesters struct{ j *fakeJournal }

func (f fakeSemesters) Current(ctx context.Context) (*models.Semester, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for _, s := range f.j.semesters {
		if s.IsCurrent {
			current := s
			return &current, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeSemesters) List(ctx context.Context) ([]models.Semester, error) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	return append([]models.Semester(nil), f.j.semesters...), nil
}

func (f fakeSemesters) ClearCurrent(ctx context.Context, exec sqlx.ExtContext) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for i := range f.j.semesters {
		f.j.semesters[i].IsCurrent = false
	}
	return nil
}

func (f fakeSemesters) MarkCurrent(ctx context.Context, exec sqlx.ExtContext, name string) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	for i := range f.j.semesters {
		if f.j.semesters[i].Name == name {
			f.j.semesters[i].IsCurrent = true
			return nil
		}
	}
	f.j.semesters = append(f.j.semesters, models.Semester{Name: name, IsCurrent: true})
	return nil
}

// journalFixture wires every ledger service over one fake journal.
type journalFixture struct {
	j         *fakeJournal
	mock      sqlmock.Sqlmock
	rules     *CategoryRules
	deps      CommandDeps
	visits    *VisitService
	points    *PointsService
	standards *StandardsService
	archive   *ArchiveService
	semesters *SemesterService
}

// wednesday is the fixed "today" of the fixtures: Wednesday 13 March 2024.
var wednesday = time.Date(2024, time.March, 13, 10, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2024, time.March, 13+offset, 0, 0, 0, 0, time.UTC)
}

const (
	studentGUID = "student-1"
	teacherGUID = "teacher-1"
	otherGUID   = "teacher-2"
	adminGUID   = "admin-1"
	curatorGUID = "curator-1"
	groupName   = "PE-101"
	fallTerm    = "2023-2024/autumn"
	springTerm  = "2023-2024/spring"
)

func newJournalFixture(t *testing.T, policy ClosurePolicy) *journalFixture {
	t.Helper()
	j := newFakeJournal()
	j.addTeacher(teacherGUID, models.PermissionDefault)
	j.addTeacher(otherGUID, models.PermissionDefault)
	j.addTeacher(adminGUID, models.PermissionAdmin)
	j.addTeacher(curatorGUID, models.PermissionDefault)
	j.semesters = []models.Semester{{Name: springTerm, IsCurrent: true}}
	curator := curatorGUID
	j.groups[groupName] = models.Group{GroupName: groupName, VisitValue: 2.0, CuratorGUID: &curator}
	j.addStudent(models.StudentLedger{
		Student: models.Student{
			StudentGUID:         studentGUID,
			FullName:            "Student One",
			GroupNumber:         groupName,
			CurrentSemesterName: fallTerm,
			IsActive:            true,
		},
		VisitValue:  2.0,
		CuratorGUID: &curator,
	})

	rules, err := NewCategoryRules(config.DefaultRules())
	require.NoError(t, err)
	tx, mock := newTxProviderMock(t)
	clk := clock.Fixed{At: wednesday}

	validatorSvc := NewEntryValidator(rules, clk, fakeVisits{j}, fakePoints{j}, fakeStandards{j})
	deps := CommandDeps{
		Students:  fakeStudents{j},
		Teachers:  fakeTeachers{j},
		Tx:        tx,
		Validator: validatorSvc,
		Metrics:   NewMetricsService(),
	}
	semesters := NewSemesterService(fakeSemesters{j}, tx, nil, nil)
	archive := NewArchiveService(ArchiveDeps{
		Students:  fakeStudents{j},
		Archives:  fakeArchives{j},
		Semesters: semesters,
		Visits:    fakeVisits{j},
		Points:    fakePoints{j},
		Standards: fakeStandards{j},
		Groups:    fakeGroups{j},
		Tx:        tx,
		Rules:     rules,
		Policy:    policy,
		Clock:     clk,
		Metrics:   deps.Metrics,
	})

	return &journalFixture{
		j:         j,
		mock:      mock,
		rules:     rules,
		deps:      deps,
		visits:    NewVisitService(deps, fakeVisits{j}),
		points:    NewPointsService(deps, fakePoints{j}),
		standards: NewStandardsService(deps, fakeStandards{j}),
		archive:   archive,
		semesters: semesters,
	}
}

func (f *journalFixture) expectCommit() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *journalFixture) expectRollback() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

func (f *journalFixture) setCounters(visits, additional, standards int) {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	l := f.j.students[studentGUID]
	l.Visits, l.AdditionalPoints, l.PointsForStandards = visits, additional, standards
	f.j.students[studentGUID] = l
}

func caller(guid string) models.Caller {
	return models.Caller{TeacherGUID: guid}
}

func admin() models.Caller {
	return models.Caller{TeacherGUID: adminGUID, Privileged: true}
}
