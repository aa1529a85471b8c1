package services

import (
  "context"
  "errors"
  "testing"

  "github.com/google/uuid"

  "github.com/celoacademy/academy-backend/internal/requestdata"
)

const testWallet = "0x1111111111111111111111111111111111111111"

func authedContext(userID uuid.UUID) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID:        userID,
    WalletAddress: testWallet,
  })
}

func newEntitlementFixture(t *testing.T) (*fakeCourseRepo, *fakeEnrollmentRepo, *fakeProgressRepo, *fakeBadge, *staticRecent, EntitlementService) {
  t.Helper()
  log := testLogger()
  courseRepo := newFakeCourseRepo()
  enrollmentRepo := newFakeEnrollmentRepo()
  progressRepo := newFakeProgressRepo()
  badge := &fakeBadge{completed: map[int]bool{}}
  recent := &staticRecent{}
  facts := NewChainFactService(log, testNetwork(), badge, nil)
  svc := NewEntitlementService(log, courseRepo, enrollmentRepo, progressRepo, facts, recent)
  return courseRepo, enrollmentRepo, progressRepo, badge, recent, svc
}

func TestResolveAccessUnionRule(t *testing.T) {
  // Any single positive source grants access; no combination of
  // negatives from other sources takes it away.
  cases := []struct {
    name          string
    mirror        bool
    chainEnrolled bool
    chainClaimed  bool
    recent        bool
    want          bool
  }{
    {"all negative", false, false, false, false, false},
    {"mirror only", true, false, false, false, true},
    {"chain enrolled only", false, true, false, false, true},
    {"chain claimed only", false, false, true, false, true},
    {"recent success only", false, false, false, true, true},
    {"mirror and chain", true, true, false, false, true},
    {"chain both facts", false, true, true, false, true},
    {"everything positive", true, true, true, true, true},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      courseRepo, enrollmentRepo, _, badge, recent, svc := newEntitlementFixture(t)
      course := courseRepo.addCourse("celo-basics", 3)
      userID := uuid.New()
      ctx := authedContext(userID)

      badge.enrolled = tc.chainEnrolled
      badge.claimed = tc.chainClaimed
      recent.success = tc.recent
      if tc.mirror {
        enrollmentRepo.Upsert(ctx, nil, testEnrollmentRow(userID, course.ID))
      }

      decision, err := svc.ResolveAccess(ctx, "celo-basics")
      if err != nil {
        t.Fatalf("ResolveAccess: %v", err)
      }
      if decision.HasAccess != tc.want {
        t.Fatalf("HasAccess = %v, want %v (sources %+v)", decision.HasAccess, tc.want, decision.Sources)
      }
      if !tc.want && decision.Reason != ReasonNotEnrolled {
        t.Fatalf("Reason = %q, want %q", decision.Reason, ReasonNotEnrolled)
      }
    })
  }
}

func TestResolveAccessChainFailureDoesNotDeny(t *testing.T) {
  courseRepo, enrollmentRepo, _, badge, _, svc := newEntitlementFixture(t)
  course := courseRepo.addCourse("celo-basics", 3)
  userID := uuid.New()
  ctx := authedContext(userID)

  badge.readErr = errors.New("rpc unreachable")
  enrollmentRepo.Upsert(ctx, nil, testEnrollmentRow(userID, course.ID))

  decision, err := svc.ResolveAccess(ctx, "celo-basics")
  if err != nil {
    t.Fatalf("ResolveAccess: %v", err)
  }
  if !decision.HasAccess {
    t.Fatal("mirror enrollment must grant access while the chain is unreachable")
  }
  if !decision.Sources.ChainReadFailed {
    t.Fatal("expected ChainReadFailed marker")
  }
}

func TestResolveAccessChainFailureAloneIsUnknown(t *testing.T) {
  courseRepo, _, _, badge, _, svc := newEntitlementFixture(t)
  courseRepo.addCourse("celo-basics", 3)
  badge.readErr = errors.New("rpc unreachable")

  decision, err := svc.ResolveAccess(authedContext(uuid.New()), "celo-basics")
  if err != nil {
    t.Fatalf("ResolveAccess: %v", err)
  }
  if decision.HasAccess {
    t.Fatal("no positive source, expected no access")
  }
  if decision.Reason != ReasonChainReadFailed {
    t.Fatalf("Reason = %q, want %q", decision.Reason, ReasonChainReadFailed)
  }
}

func TestResolveAccessClearsRecentAfterLiveConfirmation(t *testing.T) {
  courseRepo, _, _, badge, recent, svc := newEntitlementFixture(t)
  courseRepo.addCourse("celo-basics", 3)
  badge.enrolled = true
  recent.success = true

  if _, err := svc.ResolveAccess(authedContext(uuid.New()), "celo-basics"); err != nil {
    t.Fatalf("ResolveAccess: %v", err)
  }
  if recent.cleared != 1 {
    t.Fatalf("cleared = %d, want 1: live positive read should retire the optimistic record", recent.cleared)
  }
}

func TestResolveAccessNoWallet(t *testing.T) {
  _, _, _, _, _, svc := newEntitlementFixture(t)
  decision, err := svc.ResolveAccess(context.Background(), "celo-basics")
  if err != nil {
    t.Fatalf("ResolveAccess: %v", err)
  }
  if decision.HasAccess || decision.Reason != ReasonWalletNotConnected {
    t.Fatalf("decision = %+v, want wallet-not-connected denial", decision)
  }
}

func TestResolveAccessUnknownCourse(t *testing.T) {
  _, _, _, _, _, svc := newEntitlementFixture(t)
  decision, err := svc.ResolveAccess(authedContext(uuid.New()), "no-such-course")
  if err != nil {
    t.Fatalf("ResolveAccess: %v", err)
  }
  if decision.Reason != ReasonCourseNotFound {
    t.Fatalf("Reason = %q, want %q", decision.Reason, ReasonCourseNotFound)
  }
}

func TestReviewEligibility(t *testing.T) {
  cases := []struct {
    name       string
    lessons    int
    completed  int
    enrolled   bool
    want       bool
    wantReason string
  }{
    {"not enrolled", 3, 3, false, false, string(ReasonNotEnrolled)},
    {"no published lessons", 0, 0, true, false, "COURSE_HAS_NO_LESSONS"},
    {"partially complete", 3, 2, true, false, "COURSE_NOT_COMPLETED"},
    {"fully complete", 3, 3, true, true, ""},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      courseRepo, _, progressRepo, badge, _, svc := newEntitlementFixture(t)
      course := courseRepo.addCourse("celo-basics", tc.lessons)
      userID := uuid.New()
      ctx := authedContext(userID)

      badge.enrolled = tc.enrolled
      lessonIDs := courseRepo.lessons[course.ID]
      progressRepo.complete(userID, lessonIDs[:tc.completed]...)

      eligibility, err := svc.ResolveReviewEligibility(ctx, "celo-basics")
      if err != nil {
        t.Fatalf("ResolveReviewEligibility: %v", err)
      }
      if eligibility.CanReview != tc.want {
        t.Fatalf("CanReview = %v, want %v (%+v)", eligibility.CanReview, tc.want, eligibility)
      }
      if eligibility.Reason != tc.wantReason {
        t.Fatalf("Reason = %q, want %q", eligibility.Reason, tc.wantReason)
      }
    })
  }
}
