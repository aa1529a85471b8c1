package services

import (
  "context"
  "strings"

  "github.com/celoacademy/academy-backend/internal/chain"
  "github.com/celoacademy/academy-backend/internal/coursetoken"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/requestdata"
)

// ReasonCode explains a negative or degraded access decision.
type ReasonCode string

const (
  ReasonWalletNotConnected ReasonCode = "WALLET_NOT_CONNECTED"
  ReasonLoading            ReasonCode = "LOADING"
  ReasonNotEnrolled        ReasonCode = "NOT_ENROLLED"
  ReasonChainReadFailed    ReasonCode = "CHAIN_READ_FAILED"
  ReasonCourseNotFound     ReasonCode = "COURSE_NOT_FOUND"
)

// DecisionSources records what each source independently reported, so
// callers can see which one granted access. Chain fields are safe
// defaults when ChainReadFailed is set.
type DecisionSources struct {
  MirrorEnrolled     bool `json:"mirror_enrolled"`
  ChainEnrolled      bool `json:"chain_enrolled"`
  ChainClaimed       bool `json:"chain_claimed"`
  RecentLocalSuccess bool `json:"recent_local_success"`
  ChainReadFailed    bool `json:"chain_read_failed"`
}

// Decision is the resolved entitlement for one (user, course) pair.
type Decision struct {
  HasAccess bool            `json:"has_access"`
  Reason    ReasonCode      `json:"reason,omitempty"`
  TokenID   uint64          `json:"token_id"`
  Sources   DecisionSources `json:"sources"`
}

// ReviewEligibility reports whether a user may review a course and why
// not, when not.
type ReviewEligibility struct {
  CanReview        bool   `json:"can_review"`
  Enrolled         bool   `json:"enrolled"`
  CompletedLessons int64  `json:"completed_lessons"`
  PublishedLessons int64  `json:"published_lessons"`
  Reason           string `json:"reason,omitempty"`
}

// RecentSuccessRegistry remembers transactions this process confirmed
// moments ago, bridging the window where RPC nodes still serve
// pre-confirmation state. Implemented by the enrollment service.
type RecentSuccessRegistry interface {
  RecentSuccess(wallet chain.Address, tokenID uint64) bool
  // Clear drops the record once a live chain read confirms the fact,
  // handing authority back to the chain.
  Clear(wallet chain.Address, tokenID uint64)
}

type EntitlementService interface {
  // ResolveAccess applies the union rule over the mirror, the chain
  // and the recent-success registry. No source vetoes another; a
  // chain read failure downgrades that source to unknown rather than
  // denying.
  ResolveAccess(ctx context.Context, courseSlug string) (*Decision, error)
  ResolveReviewEligibility(ctx context.Context, courseSlug string) (*ReviewEligibility, error)
}

type entitlementService struct {
  log            *logger.Logger
  courseRepo     repos.CourseRepo
  enrollmentRepo repos.EnrollmentRepo
  progressRepo   repos.LessonProgressRepo
  facts          ChainFactService
  recent         RecentSuccessRegistry
}

func NewEntitlementService(
  baseLog *logger.Logger,
  courseRepo repos.CourseRepo,
  enrollmentRepo repos.EnrollmentRepo,
  progressRepo repos.LessonProgressRepo,
  facts ChainFactService,
  recent RecentSuccessRegistry,
) EntitlementService {
  serviceLog := baseLog.With("service", "EntitlementService")
  return &entitlementService{
    log:            serviceLog,
    courseRepo:     courseRepo,
    enrollmentRepo: enrollmentRepo,
    progressRepo:   progressRepo,
    facts:          facts,
    recent:         recent,
  }
}

func (s *entitlementService) ResolveAccess(ctx context.Context, courseSlug string) (*Decision, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.WalletAddress == "" {
    return &Decision{HasAccess: false, Reason: ReasonWalletNotConnected}, nil
  }
  wallet, err := chain.ParseAddress(rd.WalletAddress)
  if err != nil {
    return &Decision{HasAccess: false, Reason: ReasonWalletNotConnected}, nil
  }

  course, err := s.courseRepo.GetBySlug(ctx, nil, courseSlug)
  if err != nil {
    return nil, err
  }
  if course == nil {
    return &Decision{HasAccess: false, Reason: ReasonCourseNotFound}, nil
  }
  tokenID := coursetoken.TokenID(course.Slug, course.ID.String())

  decision := &Decision{TokenID: tokenID}

  // Mirror read and chain reads are independent sources; run both and
  // union the results.
  mirrorDone := make(chan struct{})
  var mirrorEnrolled bool
  go func() {
    defer close(mirrorDone)
    enrollment, merr := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, rd.UserID, course.ID)
    if merr != nil {
      s.log.Warn("Mirror enrollment read failed", "user_id", rd.UserID, "course_id", course.ID, "error", merr)
      return
    }
    mirrorEnrolled = enrollment != nil
  }()

  chainFacts := s.facts.Facts(ctx, wallet, tokenID)
  <-mirrorDone

  recentSuccess := false
  if s.recent != nil {
    recentSuccess = s.recent.RecentSuccess(wallet, tokenID)
    // A live read that already shows the enrollment retires the
    // optimistic record.
    if recentSuccess && !chainFacts.ReadFailed && (chainFacts.Enrolled || chainFacts.Claimed) {
      s.recent.Clear(wallet, tokenID)
    }
  }

  decision.Sources = DecisionSources{
    MirrorEnrolled:     mirrorEnrolled,
    ChainEnrolled:      chainFacts.Enrolled,
    ChainClaimed:       chainFacts.Claimed,
    RecentLocalSuccess: recentSuccess,
    ChainReadFailed:    chainFacts.ReadFailed,
  }
  decision.HasAccess = mirrorEnrolled || chainFacts.Enrolled || chainFacts.Claimed || recentSuccess

  if !decision.HasAccess {
    if chainFacts.ReadFailed {
      // The chain could not be consulted and nothing else granted
      // access. The answer is unknown, not a confirmed denial.
      decision.Reason = ReasonChainReadFailed
    } else {
      decision.Reason = ReasonNotEnrolled
    }
  }
  return decision, nil
}

func (s *entitlementService) ResolveReviewEligibility(ctx context.Context, courseSlug string) (*ReviewEligibility, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return &ReviewEligibility{Reason: CodeNotAuthenticated}, nil
  }

  decision, err := s.ResolveAccess(ctx, courseSlug)
  if err != nil {
    return nil, err
  }
  eligibility := &ReviewEligibility{Enrolled: decision.HasAccess}

  course, err := s.courseRepo.GetBySlug(ctx, nil, courseSlug)
  if err != nil {
    return nil, err
  }
  if course == nil {
    eligibility.Reason = string(ReasonCourseNotFound)
    return eligibility, nil
  }

  lessonIDs, err := s.courseRepo.ListPublishedLessonIDs(ctx, nil, course.ID)
  if err != nil {
    return nil, err
  }
  eligibility.PublishedLessons = int64(len(lessonIDs))

  if len(lessonIDs) > 0 {
    completed, err := s.progressRepo.CountCompleted(ctx, nil, rd.UserID, lessonIDs)
    if err != nil {
      return nil, err
    }
    eligibility.CompletedLessons = completed
  }

  switch {
  case !eligibility.Enrolled:
    eligibility.Reason = string(ReasonNotEnrolled)
  case eligibility.PublishedLessons == 0:
    // A course with nothing published cannot be finished, so it
    // cannot be reviewed either.
    eligibility.Reason = "COURSE_HAS_NO_LESSONS"
  case eligibility.CompletedLessons < eligibility.PublishedLessons:
    eligibility.Reason = "COURSE_NOT_COMPLETED"
  default:
    eligibility.CanReview = true
  }
  return eligibility, nil
}

// normalizeWallet lowercases for storage and comparison. Checksummed
// and lowercase forms of the same address must map to one identity.
func normalizeWallet(address string) string {
  return strings.ToLower(address)
}
