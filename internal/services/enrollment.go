package services

import (
  "context"
  "errors"
  "fmt"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/celoacademy/academy-backend/internal/chain"
  "github.com/celoacademy/academy-backend/internal/clients/relay"
  "github.com/celoacademy/academy-backend/internal/coursetoken"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/requestdata"
  "github.com/celoacademy/academy-backend/internal/types"
)

type ActionKind string

const (
  ActionEnroll         ActionKind = "enroll"
  ActionCompleteModule ActionKind = "complete_module"
)

type ActionState string

const (
  ActionSubmitting ActionState = "submitting"
  ActionConfirming ActionState = "confirming"
  ActionConfirmed  ActionState = "confirmed"
  ActionFailed     ActionState = "failed"
)

type SubmitStrategy string

const (
  StrategySponsored SubmitStrategy = "sponsored"
  StrategyDirect    SubmitStrategy = "direct"
)

// PendingAction is the lifecycle record of one submitted transaction.
// Snapshots returned by the service are copies; the live record is
// only mutated under the service lock.
type PendingAction struct {
  ID          uuid.UUID   `json:"id"`
  Kind        ActionKind  `json:"kind"`
  State       ActionState `json:"state"`
  Wallet      string      `json:"wallet"`
  CourseSlug  string      `json:"course_slug"`
  TokenID     uint64      `json:"token_id"`
  ModuleIndex int         `json:"module_index,omitempty"`
  TxHash      string      `json:"tx_hash,omitempty"`
  // NoOp marks an enroll that settled without a transaction because
  // the chain already held the enrollment.
  NoOp bool `json:"no_op,omitempty"`
  // Code carries the failure code for failed actions, or
  // CodeAlreadyEnrolled for a no-op settlement.
  Code      string    `json:"code,omitempty"`
  CreatedAt time.Time `json:"created_at"`
  UpdatedAt time.Time `json:"updated_at"`
}

type SubmitRequest struct {
  Kind        ActionKind     `json:"kind"`
  CourseSlug  string         `json:"course_slug"`
  ModuleIndex int            `json:"module_index"`
  Strategy    SubmitStrategy `json:"strategy"`
  // SignedTx carries the wallet-signed raw transaction for the direct
  // strategy. The backend never holds user keys.
  SignedTx string `json:"signed_tx,omitempty"`
}

type EnrollmentService interface {
  // Submit starts (or joins) a transaction for the request. A second
  // submit for the same (wallet, token, kind) while one is in flight
  // returns the active action instead of double-spending.
  Submit(ctx context.Context, req SubmitRequest) (*PendingAction, error)
  Get(actionID uuid.UUID) (*PendingAction, bool)
  GetActive(wallet chain.Address, courseSlug string) (*PendingAction, bool)
  // RecordMirrorEnrollment writes an enrollment row observed outside
  // the submit path, e.g. a client-side confirmation being synced.
  RecordMirrorEnrollment(ctx context.Context, userID uuid.UUID, courseSlug, txHash, source string) error

  RecentSuccessRegistry
}

const (
  confirmDeadline    = 90 * time.Second
  receiptPollInitial = 2 * time.Second
  receiptPollMax     = 10 * time.Second

  // recentSuccessWindow bounds how long a confirmed transaction keeps
  // granting optimistic access while RPC nodes catch up.
  recentSuccessWindow = 2 * time.Minute

  // actionRetention keeps terminal actions around long enough for
  // clients to poll the outcome before they are dropped.
  actionRetention = 10 * time.Minute
)

type enrollmentService struct {
  log            *logger.Logger
  network        chain.Network
  badge          chain.Badge
  rpc            chain.RPCClient
  relay          relay.Client
  facts          ChainFactService
  courseRepo     repos.CourseRepo
  enrollmentRepo repos.EnrollmentRepo
  userRepo       repos.UserRepo

  mu       sync.Mutex
  actions  map[uuid.UUID]*PendingAction
  inFlight map[string]uuid.UUID
  recent   map[string]time.Time
}

func NewEnrollmentService(
  baseLog *logger.Logger,
  network chain.Network,
  badge chain.Badge,
  rpc chain.RPCClient,
  relayClient relay.Client,
  facts ChainFactService,
  courseRepo repos.CourseRepo,
  enrollmentRepo repos.EnrollmentRepo,
  userRepo repos.UserRepo,
) EnrollmentService {
  serviceLog := baseLog.With("service", "EnrollmentService", "chain_id", network.ChainID)
  return &enrollmentService{
    log:            serviceLog,
    network:        network,
    badge:          badge,
    rpc:            rpc,
    relay:          relayClient,
    facts:          facts,
    courseRepo:     courseRepo,
    enrollmentRepo: enrollmentRepo,
    userRepo:       userRepo,
    actions:        map[uuid.UUID]*PendingAction{},
    inFlight:       map[string]uuid.UUID{},
    recent:         map[string]time.Time{},
  }
}

func actionKey(wallet chain.Address, tokenID uint64, kind ActionKind, moduleIndex int) string {
  if kind == ActionCompleteModule {
    return fmt.Sprintf("%s:%d:%s:%d", wallet.Hex(), tokenID, kind, moduleIndex)
  }
  return fmt.Sprintf("%s:%d:%s", wallet.Hex(), tokenID, kind)
}

func recentKey(wallet chain.Address, tokenID uint64) string {
  return fmt.Sprintf("%s:%d", wallet.Hex(), tokenID)
}

func (s *enrollmentService) Submit(ctx context.Context, req SubmitRequest) (*PendingAction, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, NewCodedError(CodeNotAuthenticated, "authentication required")
  }
  if rd.WalletAddress == "" {
    return nil, NewCodedError(CodeWalletNotConnected, "no wallet on session")
  }
  wallet, err := chain.ParseAddress(rd.WalletAddress)
  if err != nil {
    return nil, NewCodedError(CodeWalletNotConnected, "invalid wallet address on session")
  }
  if req.Kind != ActionEnroll && req.Kind != ActionCompleteModule {
    return nil, NewCodedError(CodeConfigInvalid, fmt.Sprintf("unknown action kind %q", req.Kind))
  }

  course, err := s.courseRepo.GetBySlug(ctx, nil, req.CourseSlug)
  if err != nil {
    return nil, err
  }
  if course == nil {
    return nil, NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", req.CourseSlug))
  }
  tokenID := coursetoken.TokenID(course.Slug, course.ID.String())

  key := actionKey(wallet, tokenID, req.Kind, req.ModuleIndex)

  s.mu.Lock()
  s.pruneLocked(time.Now())
  if activeID, exists := s.inFlight[key]; exists {
    snapshot := *s.actions[activeID]
    s.mu.Unlock()
    s.log.Info("Joined in-flight action", "key", key, "action_id", activeID)
    return &snapshot, nil
  }
  action := &PendingAction{
    ID:          uuid.New(),
    Kind:        req.Kind,
    State:       ActionSubmitting,
    Wallet:      wallet.Hex(),
    CourseSlug:  course.Slug,
    TokenID:     tokenID,
    ModuleIndex: req.ModuleIndex,
    CreatedAt:   time.Now(),
    UpdatedAt:   time.Now(),
  }
  s.actions[action.ID] = action
  s.inFlight[key] = action.ID
  s.mu.Unlock()

  // Enrolling a wallet the chain already knows settles immediately.
  // Re-claiming would revert, and the user already has what they
  // asked for.
  if req.Kind == ActionEnroll {
    enrolled, readErr := s.badge.IsEnrolled(ctx, wallet, tokenID)
    if readErr == nil {
      claimed := enrolled
      if !enrolled {
        claimed, readErr = s.badge.HasClaimed(ctx, wallet, tokenID)
      }
      if readErr == nil && (enrolled || claimed) {
        s.settleNoOp(ctx, action, key, rd.UserID, course.ID)
        return s.snapshot(action.ID), nil
      }
    }
    if readErr != nil {
      // Unknown enrollment state does not block the submit; a claim
      // against an already-enrolled wallet fails on-chain and is
      // reported as reverted.
      s.log.Warn("Pre-submit enrollment read failed", "wallet", wallet.Hex(), "token_id", tokenID, "error", readErr)
    }
  }

  txHash, submitErr := s.sendTransaction(ctx, req, tokenID)
  if submitErr != nil {
    s.fail(action.ID, key, submitErr)
    return nil, submitErr
  }

  s.mu.Lock()
  action.State = ActionConfirming
  action.TxHash = txHash
  action.UpdatedAt = time.Now()
  s.mu.Unlock()
  s.log.Info("Transaction submitted", "action_id", action.ID, "tx_hash", txHash, "kind", req.Kind)

  // Confirmation outlives the request; the client polls Get.
  go s.confirm(action.ID, key, wallet, tokenID, txHash, req.Kind, req.Strategy, rd.UserID, course.ID)

  return s.snapshot(action.ID), nil
}

func (s *enrollmentService) sendTransaction(ctx context.Context, req SubmitRequest, tokenID uint64) (string, error) {
  var data []byte
  switch req.Kind {
  case ActionEnroll:
    data = s.badge.EnrollCalldata(tokenID)
  case ActionCompleteModule:
    data = s.badge.CompleteModuleCalldata(tokenID, req.ModuleIndex)
  }

  switch req.Strategy {
  case StrategySponsored:
    if s.relay == nil || !s.relay.Ready() {
      return "", NewCodedError(CodeRelayNotReady, "gas sponsorship unavailable")
    }
    txHash, err := s.relay.SendTransaction(ctx, s.badge.ContractAddress(), data, 0)
    if err != nil {
      if errors.Is(err, relay.ErrNotReady) {
        return "", NewCodedError(CodeRelayNotReady, "gas sponsorship unavailable")
      }
      return "", NewCodedError(CodeSubmissionReverted, err.Error())
    }
    return txHash, nil
  case StrategyDirect:
    if req.SignedTx == "" {
      // The wallet declined to sign; nothing reached the chain.
      return "", NewCodedError(CodeSubmissionRejected, "no signed transaction provided")
    }
    txHash, err := s.rpc.SendRawTransaction(ctx, req.SignedTx)
    if err != nil {
      return "", NewCodedError(CodeSubmissionReverted, err.Error())
    }
    return txHash, nil
  default:
    return "", NewCodedError(CodeConfigInvalid, fmt.Sprintf("unknown submit strategy %q", req.Strategy))
  }
}

// confirm polls for the receipt until the deadline. Runs detached from
// the originating request.
func (s *enrollmentService) confirm(actionID uuid.UUID, key string, wallet chain.Address, tokenID uint64, txHash string, kind ActionKind, strategy SubmitStrategy, userID, courseID uuid.UUID) {
  ctx, cancel := context.WithTimeout(context.Background(), confirmDeadline)
  defer cancel()

  interval := receiptPollInitial
  for {
    receipt, err := s.rpc.TransactionReceipt(ctx, txHash)
    if err == nil && receipt != nil {
      if receipt.Succeeded() {
        s.settleConfirmed(ctx, actionID, key, wallet, tokenID, txHash, kind, strategy, userID, courseID)
      } else {
        s.fail(actionID, key, NewCodedError(CodeSubmissionReverted, "transaction reverted on-chain"))
      }
      return
    }
    if err != nil {
      s.log.Debug("Receipt poll failed", "tx_hash", txHash, "error", err)
    }

    select {
    case <-ctx.Done():
      s.fail(actionID, key, NewCodedError(CodeTimeout, "no receipt before deadline"))
      return
    case <-time.After(interval):
    }
    if interval < receiptPollMax {
      interval *= 2
      if interval > receiptPollMax {
        interval = receiptPollMax
      }
    }
  }
}

func (s *enrollmentService) settleConfirmed(ctx context.Context, actionID uuid.UUID, key string, wallet chain.Address, tokenID uint64, txHash string, kind ActionKind, strategy SubmitStrategy, userID, courseID uuid.UUID) {
  // Cached facts predate the transaction; drop them before anyone
  // reads a stale "not enrolled".
  s.facts.Invalidate(ctx, wallet, tokenID)

  s.mu.Lock()
  if action, ok := s.actions[actionID]; ok {
    action.State = ActionConfirmed
    action.UpdatedAt = time.Now()
  }
  delete(s.inFlight, key)
  if kind == ActionEnroll {
    s.recent[recentKey(wallet, tokenID)] = time.Now()
  }
  s.mu.Unlock()

  s.log.Info("Transaction confirmed", "action_id", actionID, "tx_hash", txHash, "kind", kind)

  if kind == ActionEnroll && userID != uuid.Nil {
    source := types.EnrollmentSourceSponsored
    if strategy == StrategyDirect {
      source = types.EnrollmentSourceDirect
    }
    row := &types.CourseEnrollment{
      UserID:   userID,
      CourseID: courseID,
      TokenID:  tokenID,
      TxHash:   txHash,
      Source:   source,
    }
    if err := s.enrollmentRepo.Upsert(ctx, nil, row); err != nil {
      // The chain is the source of truth; the mirror catches up on
      // the next sync.
      s.log.Error("Mirror enrollment write failed", "user_id", userID, "course_id", courseID, "error", err)
    }
  }
}

// settleNoOp records an enroll that needed no transaction.
func (s *enrollmentService) settleNoOp(ctx context.Context, action *PendingAction, key string, userID, courseID uuid.UUID) {
  s.mu.Lock()
  action.State = ActionConfirmed
  action.NoOp = true
  action.Code = CodeAlreadyEnrolled
  action.UpdatedAt = time.Now()
  delete(s.inFlight, key)
  s.mu.Unlock()

  s.log.Info("Enrollment already on chain, settled without transaction", "action_id", action.ID, "token_id", action.TokenID)

  if userID != uuid.Nil {
    row := &types.CourseEnrollment{
      UserID:   userID,
      CourseID: courseID,
      TokenID:  action.TokenID,
      Source:   types.EnrollmentSourceSync,
    }
    if err := s.enrollmentRepo.Upsert(ctx, nil, row); err != nil {
      s.log.Error("Mirror enrollment write failed", "user_id", userID, "course_id", courseID, "error", err)
    }
  }
}

func (s *enrollmentService) fail(actionID uuid.UUID, key string, cause error) {
  s.mu.Lock()
  if action, ok := s.actions[actionID]; ok {
    action.State = ActionFailed
    action.Code = ErrorCode(cause)
    action.UpdatedAt = time.Now()
  }
  delete(s.inFlight, key)
  s.mu.Unlock()
  s.log.Warn("Action failed", "action_id", actionID, "error", cause)
}

// pruneLocked drops terminal actions past the retention window.
// In-flight actions are never touched. Caller holds s.mu.
func (s *enrollmentService) pruneLocked(now time.Time) {
  for id, action := range s.actions {
    if action.State != ActionConfirmed && action.State != ActionFailed {
      continue
    }
    if now.Sub(action.UpdatedAt) > actionRetention {
      delete(s.actions, id)
    }
  }
}

func (s *enrollmentService) snapshot(actionID uuid.UUID) *PendingAction {
  s.mu.Lock()
  defer s.mu.Unlock()
  action, ok := s.actions[actionID]
  if !ok {
    return nil
  }
  snapshot := *action
  return &snapshot
}

func (s *enrollmentService) Get(actionID uuid.UUID) (*PendingAction, bool) {
  snapshot := s.snapshot(actionID)
  return snapshot, snapshot != nil
}

func (s *enrollmentService) GetActive(wallet chain.Address, courseSlug string) (*PendingAction, bool) {
  s.mu.Lock()
  defer s.mu.Unlock()
  walletHex := wallet.Hex()
  for _, action := range s.actions {
    if action.Wallet == walletHex && action.CourseSlug == courseSlug &&
      (action.State == ActionSubmitting || action.State == ActionConfirming) {
      snapshot := *action
      return &snapshot, true
    }
  }
  return nil, false
}

func (s *enrollmentService) RecordMirrorEnrollment(ctx context.Context, userID uuid.UUID, courseSlug, txHash, source string) error {
  course, err := s.courseRepo.GetBySlug(ctx, nil, courseSlug)
  if err != nil {
    return err
  }
  if course == nil {
    return NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", courseSlug))
  }
  if source == "" {
    source = types.EnrollmentSourceSync
  }
  row := &types.CourseEnrollment{
    UserID:   userID,
    CourseID: course.ID,
    TokenID:  coursetoken.TokenID(course.Slug, course.ID.String()),
    TxHash:   txHash,
    Source:   source,
  }
  return s.enrollmentRepo.Upsert(ctx, nil, row)
}

func (s *enrollmentService) RecentSuccess(wallet chain.Address, tokenID uint64) bool {
  s.mu.Lock()
  defer s.mu.Unlock()
  at, ok := s.recent[recentKey(wallet, tokenID)]
  if !ok {
    return false
  }
  if time.Since(at) > recentSuccessWindow {
    delete(s.recent, recentKey(wallet, tokenID))
    return false
  }
  return true
}

func (s *enrollmentService) Clear(wallet chain.Address, tokenID uint64) {
  s.mu.Lock()
  defer s.mu.Unlock()
  delete(s.recent, recentKey(wallet, tokenID))
}
