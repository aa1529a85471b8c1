package services

import (
  "context"
  "errors"
  "sync"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/celoacademy/academy-backend/internal/chain"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/types"
)

func testLogger() *logger.Logger {
  log, err := logger.New("development")
  if err != nil {
    panic(err)
  }
  return log
}

func testNetwork() chain.Network {
  cfg, err := chain.LoadConfig("")
  if err != nil {
    panic(err)
  }
  return cfg.Default()
}

// fakeBadge serves scripted facts and records calldata requests.
type fakeBadge struct {
  mu sync.Mutex

  enrolled  bool
  claimed   bool
  completed map[int]bool
  count     uint64

  readErr error

  isEnrolledCalls int
}

func (b *fakeBadge) Version() chain.ContractVersion { return chain.VersionOptimized }
func (b *fakeBadge) ContractAddress() chain.Address {
  return testNetwork().ContractAddress
}

func (b *fakeBadge) IsEnrolled(context.Context, chain.Address, uint64) (bool, error) {
  b.mu.Lock()
  defer b.mu.Unlock()
  b.isEnrolledCalls++
  if b.readErr != nil {
    return false, b.readErr
  }
  return b.enrolled, nil
}

func (b *fakeBadge) HasClaimed(context.Context, chain.Address, uint64) (bool, error) {
  b.mu.Lock()
  defer b.mu.Unlock()
  if b.readErr != nil {
    return false, b.readErr
  }
  return b.claimed, nil
}

func (b *fakeBadge) IsModuleCompleted(_ context.Context, _ chain.Address, _ uint64, moduleIndex int) (bool, error) {
  b.mu.Lock()
  defer b.mu.Unlock()
  if b.readErr != nil {
    return false, b.readErr
  }
  return b.completed[moduleIndex], nil
}

func (b *fakeBadge) ModulesCompletedCount(context.Context, chain.Address, uint64) (uint64, error) {
  b.mu.Lock()
  defer b.mu.Unlock()
  if b.readErr != nil {
    return 0, b.readErr
  }
  return b.count, nil
}

func (b *fakeBadge) EnrollCalldata(tokenID uint64) []byte {
  return []byte{0x01}
}

func (b *fakeBadge) CompleteModuleCalldata(tokenID uint64, moduleIndex int) []byte {
  return []byte{0x02}
}

// fakeTxRPC answers receipt polls from a script.
type fakeTxRPC struct {
  mu sync.Mutex

  sendErr   error
  sentRaw   []string
  txHash    string
  receipt   *chain.Receipt
  pendingN  int
}

func (r *fakeTxRPC) EthCall(context.Context, chain.Address, []byte) ([]byte, error) {
  return nil, errors.New("not wired")
}

func (r *fakeTxRPC) SendRawTransaction(_ context.Context, signed string) (string, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  if r.sendErr != nil {
    return "", r.sendErr
  }
  r.sentRaw = append(r.sentRaw, signed)
  return r.txHash, nil
}

func (r *fakeTxRPC) TransactionReceipt(context.Context, string) (*chain.Receipt, error) {
  r.mu.Lock()
  defer r.mu.Unlock()
  if r.pendingN > 0 {
    r.pendingN--
    return nil, nil
  }
  return r.receipt, nil
}

func (r *fakeTxRPC) ChainID(context.Context) (uint64, error) { return testNetwork().ChainID, nil }

type fakeRelay struct {
  mu     sync.Mutex
  ready  bool
  txHash string
  sends  int
}

func (f *fakeRelay) Initialize(context.Context) error { f.ready = true; return nil }
func (f *fakeRelay) Ready() bool                      { return f.ready }
func (f *fakeRelay) SponsorAddress() chain.Address    { return chain.Address{} }

func (f *fakeRelay) SendTransaction(context.Context, chain.Address, []byte, uint64) (string, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  if !f.ready {
    return "", errors.New("relay not initialized")
  }
  f.sends++
  return f.txHash, nil
}

// In-memory repos. Only the methods the services exercise do real
// work; the rest return zero values.

type fakeCourseRepo struct {
  courses map[string]*types.Course
  lessons map[uuid.UUID][]uuid.UUID
}

func newFakeCourseRepo() *fakeCourseRepo {
  return &fakeCourseRepo{
    courses: map[string]*types.Course{},
    lessons: map[uuid.UUID][]uuid.UUID{},
  }
}

func (f *fakeCourseRepo) addCourse(slug string, lessonCount int) *types.Course {
  course := &types.Course{ID: uuid.New(), Slug: slug, Status: "PUBLISHED"}
  f.courses[slug] = course
  ids := make([]uuid.UUID, 0, lessonCount)
  for i := 0; i < lessonCount; i++ {
    ids = append(ids, uuid.New())
  }
  f.lessons[course.ID] = ids
  return course
}

func (f *fakeCourseRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Course) ([]*types.Course, error) {
  return rows, nil
}

func (f *fakeCourseRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
  return nil, nil
}

func (f *fakeCourseRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (*types.Course, error) {
  return f.courses[slug], nil
}

func (f *fakeCourseRepo) GetBySlugWithContent(_ context.Context, _ *gorm.DB, slug string) (*types.Course, error) {
  return f.courses[slug], nil
}

func (f *fakeCourseRepo) ListPublished(context.Context, *gorm.DB) ([]*types.Course, error) {
  var out []*types.Course
  for _, c := range f.courses {
    out = append(out, c)
  }
  return out, nil
}

func (f *fakeCourseRepo) CountPublishedLessons(_ context.Context, _ *gorm.DB, courseID uuid.UUID) (int64, error) {
  return int64(len(f.lessons[courseID])), nil
}

func (f *fakeCourseRepo) ListPublishedLessonIDs(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
  return f.lessons[courseID], nil
}

type enrollmentKey struct {
  userID   uuid.UUID
  courseID uuid.UUID
}

type fakeEnrollmentRepo struct {
  mu   sync.Mutex
  rows map[enrollmentKey]*types.CourseEnrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
  return &fakeEnrollmentRepo{rows: map[enrollmentKey]*types.CourseEnrollment{}}
}

func (f *fakeEnrollmentRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (*types.CourseEnrollment, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.rows[enrollmentKey{userID, courseID}], nil
}

func (f *fakeEnrollmentRepo) GetByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]*types.CourseEnrollment, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  var out []*types.CourseEnrollment
  for k, row := range f.rows {
    if k.userID == userID {
      out = append(out, row)
    }
  }
  return out, nil
}

func (f *fakeEnrollmentRepo) Upsert(_ context.Context, _ *gorm.DB, row *types.CourseEnrollment) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  key := enrollmentKey{row.UserID, row.CourseID}
  if _, exists := f.rows[key]; exists {
    return nil
  }
  f.rows[key] = row
  return nil
}

func (f *fakeEnrollmentRepo) CountByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) (int64, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  var n int64
  for k := range f.rows {
    if k.courseID == courseID {
      n++
    }
  }
  return n, nil
}

type fakeProgressRepo struct {
  mu        sync.Mutex
  completed map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeProgressRepo() *fakeProgressRepo {
  return &fakeProgressRepo{completed: map[uuid.UUID]map[uuid.UUID]bool{}}
}

func (f *fakeProgressRepo) complete(userID uuid.UUID, lessonIDs ...uuid.UUID) {
  f.mu.Lock()
  defer f.mu.Unlock()
  if f.completed[userID] == nil {
    f.completed[userID] = map[uuid.UUID]bool{}
  }
  for _, id := range lessonIDs {
    f.completed[userID][id] = true
  }
}

func (f *fakeProgressRepo) GetByUserID(context.Context, *gorm.DB, uuid.UUID) ([]*types.LessonProgress, error) {
  return nil, nil
}

func (f *fakeProgressRepo) GetByUserAndLessonIDs(context.Context, *gorm.DB, uuid.UUID, []uuid.UUID) ([]*types.LessonProgress, error) {
  return nil, nil
}

func (f *fakeProgressRepo) Upsert(_ context.Context, _ *gorm.DB, row *types.LessonProgress) error {
  if row.Status == types.LessonProgressCompleted {
    f.complete(row.UserID, row.LessonID)
  }
  return nil
}

func (f *fakeProgressRepo) CountCompleted(_ context.Context, _ *gorm.DB, userID uuid.UUID, lessonIDs []uuid.UUID) (int64, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  var n int64
  for _, id := range lessonIDs {
    if f.completed[userID][id] {
      n++
    }
  }
  return n, nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.User) ([]*types.User, error) {
  return rows, nil
}
func (fakeUserRepo) GetByIDs(context.Context, *gorm.DB, []uuid.UUID) ([]*types.User, error) {
  return nil, nil
}
func (fakeUserRepo) GetByWalletAddress(context.Context, *gorm.DB, string) (*types.User, error) {
  return nil, nil
}
func (fakeUserRepo) UpsertByWalletAddress(_ context.Context, _ *gorm.DB, walletAddress string) (*types.User, error) {
  return &types.User{ID: uuid.New(), WalletAddress: walletAddress}, nil
}
func (fakeUserRepo) List(context.Context, *gorm.DB, int) ([]*types.User, error) {
  return nil, nil
}
func (fakeUserRepo) ListWithEnrollments(context.Context, *gorm.DB, int) ([]*types.User, error) {
  return nil, nil
}

func testEnrollmentRow(userID, courseID uuid.UUID) *types.CourseEnrollment {
  return &types.CourseEnrollment{
    UserID:   userID,
    CourseID: courseID,
    TokenID:  42,
    Source:   types.EnrollmentSourceSync,
  }
}

// staticRecent is a registry with a fixed answer.
type staticRecent struct {
  success bool
  cleared int
}

func (s *staticRecent) RecentSuccess(chain.Address, uint64) bool { return s.success }
func (s *staticRecent) Clear(chain.Address, uint64)              { s.cleared++ }

func waitFor(timeout time.Duration, check func() bool) bool {
  deadline := time.Now().Add(timeout)
  for time.Now().Before(deadline) {
    if check() {
      return true
    }
    time.Sleep(10 * time.Millisecond)
  }
  return check()
}
