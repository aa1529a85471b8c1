package services

import (
  "testing"

  "github.com/google/uuid"
)

func TestCourseProgress(t *testing.T) {
  courseRepo, _, progressRepo, badge, _, entitlement := newEntitlementFixture(t)
  course := courseRepo.addCourse("celo-basics", 4)
  badge.enrolled = true
  userID := uuid.New()
  ctx := authedContext(userID)
  svc := NewProgressService(testLogger(), courseRepo, progressRepo, entitlement)

  progressRepo.complete(userID, courseRepo.lessons[course.ID][:3]...)

  progress, err := svc.CourseProgress(ctx, "celo-basics")
  if err != nil {
    t.Fatalf("CourseProgress: %v", err)
  }
  if progress.CompletedLessons != 3 || progress.TotalLessons != 4 {
    t.Fatalf("progress = %+v", progress)
  }
  if progress.Percent != 75 {
    t.Fatalf("Percent = %v, want 75", progress.Percent)
  }
}

func TestCourseProgressEmptyCourse(t *testing.T) {
  courseRepo, _, progressRepo, _, _, entitlement := newEntitlementFixture(t)
  courseRepo.addCourse("empty-course", 0)
  svc := NewProgressService(testLogger(), courseRepo, progressRepo, entitlement)

  progress, err := svc.CourseProgress(authedContext(uuid.New()), "empty-course")
  if err != nil {
    t.Fatalf("CourseProgress: %v", err)
  }
  if progress.TotalLessons != 0 || progress.Percent != 0 {
    t.Fatalf("progress = %+v, want zeroes without division", progress)
  }
}

func TestCompleteLessonRequiresAccess(t *testing.T) {
  courseRepo, _, progressRepo, badge, _, entitlement := newEntitlementFixture(t)
  course := courseRepo.addCourse("celo-basics", 2)
  badge.enrolled = false
  svc := NewProgressService(testLogger(), courseRepo, progressRepo, entitlement)

  err := svc.CompleteLesson(authedContext(uuid.New()), "celo-basics", courseRepo.lessons[course.ID][0])
  if ErrorCode(err) != CodeNotEnrolled {
    t.Fatalf("error = %v, want %s", err, CodeNotEnrolled)
  }
}

func TestCompleteLessonRecordsAndCounts(t *testing.T) {
  courseRepo, _, progressRepo, badge, _, entitlement := newEntitlementFixture(t)
  course := courseRepo.addCourse("celo-basics", 2)
  badge.enrolled = true
  userID := uuid.New()
  ctx := authedContext(userID)
  svc := NewProgressService(testLogger(), courseRepo, progressRepo, entitlement)

  lessonID := courseRepo.lessons[course.ID][0]
  if err := svc.CompleteLesson(ctx, "celo-basics", lessonID); err != nil {
    t.Fatalf("CompleteLesson: %v", err)
  }
  // Completing twice is a no-op, not an error.
  if err := svc.CompleteLesson(ctx, "celo-basics", lessonID); err != nil {
    t.Fatalf("repeat CompleteLesson: %v", err)
  }

  progress, err := svc.CourseProgress(ctx, "celo-basics")
  if err != nil {
    t.Fatalf("CourseProgress: %v", err)
  }
  if progress.CompletedLessons != 1 {
    t.Fatalf("CompletedLessons = %d, want 1", progress.CompletedLessons)
  }
}

func TestCompleteLessonRejectsForeignLesson(t *testing.T) {
  courseRepo, _, progressRepo, badge, _, entitlement := newEntitlementFixture(t)
  courseRepo.addCourse("celo-basics", 2)
  badge.enrolled = true
  svc := NewProgressService(testLogger(), courseRepo, progressRepo, entitlement)

  err := svc.CompleteLesson(authedContext(uuid.New()), "celo-basics", uuid.New())
  if err == nil {
    t.Fatal("expected rejection of a lesson outside the course")
  }
}
