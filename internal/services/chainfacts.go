package services

import (
  "context"
  "fmt"
  "sync"
  "time"

  "golang.org/x/sync/errgroup"
  "golang.org/x/sync/singleflight"

  "github.com/celoacademy/academy-backend/internal/chain"
  rediscache "github.com/celoacademy/academy-backend/internal/clients/redis"
  "github.com/celoacademy/academy-backend/internal/logger"
)

// TTLs per fact volatility: users expect near-immediate feedback after
// enrolling, so enrollment facts go stale fast. Module counters can
// ride longer.
const (
  enrollmentFactTTL = 5 * time.Second
  moduleFactTTL     = 30 * time.Second

  chainReadTimeout = 10 * time.Second
)

// ChainFacts is one observation of every enrollment-relevant fact for a
// (wallet, token) pair. ReadFailed means at least one chain read failed
// and its field holds the safe default; callers must treat that field
// as unknown, never as an authoritative "no".
type ChainFacts struct {
  Enrolled         bool      `json:"enrolled"`
  Claimed          bool      `json:"claimed"`
  ModulesCompleted uint64    `json:"modules_completed"`
  ReadFailed       bool      `json:"read_failed"`
  ObservedAt       time.Time `json:"observed_at"`
}

type ChainFactService interface {
  Facts(ctx context.Context, wallet chain.Address, tokenID uint64) ChainFacts
  ModuleCompleted(ctx context.Context, wallet chain.Address, tokenID uint64, moduleIndex int) (bool, error)
  // Invalidate drops every cached fact for the pair. Called by the
  // submitter the moment a transaction confirms, so the next read
  // reflects the change without waiting out the TTL.
  Invalidate(ctx context.Context, wallet chain.Address, tokenID uint64)
}

type chainFactService struct {
  log     *logger.Logger
  network chain.Network
  badge   chain.Badge
  cache   rediscache.FactCache
  sf      singleflight.Group

  // genMu guards gen, the per-prefix invalidation generation. A read
  // snapshots the generation before touching the chain and writes its
  // result back only if the generation has not advanced; a read that
  // was in flight when Invalidate fired must not re-cache the
  // pre-confirmation value.
  genMu sync.Mutex
  gen   map[string]uint64
}

// NewChainFactService reads facts through the configured badge
// contract with a short-TTL cache in front. cache may be nil; reads
// then always go to the chain.
func NewChainFactService(baseLog *logger.Logger, network chain.Network, badge chain.Badge, cache rediscache.FactCache) ChainFactService {
  serviceLog := baseLog.With("service", "ChainFactService", "chain_id", network.ChainID, "contract", network.ContractAddress.Hex())
  return &chainFactService{
    log:     serviceLog,
    network: network,
    badge:   badge,
    cache:   cache,
    gen:     map[string]uint64{},
  }
}

func (s *chainFactService) generation(prefix string) uint64 {
  s.genMu.Lock()
  defer s.genMu.Unlock()
  return s.gen[prefix]
}

func (s *chainFactService) advanceGeneration(prefix string) {
  s.genMu.Lock()
  defer s.genMu.Unlock()
  s.gen[prefix]++
}

// keyPrefix groups every fact for a pair under one invalidation
// prefix. The contract address is part of the key: facts from an old
// contract version must never be served for the new one.
func (s *chainFactService) keyPrefix(wallet chain.Address, tokenID uint64) string {
  return fmt.Sprintf("chainfact:%d:%s:%s:%d:", s.network.ChainID, s.network.ContractAddress.Hex(), wallet.Hex(), tokenID)
}

func (s *chainFactService) Facts(ctx context.Context, wallet chain.Address, tokenID uint64) ChainFacts {
  ctx, cancel := context.WithTimeout(ctx, chainReadTimeout)
  defer cancel()

  facts := ChainFacts{ObservedAt: time.Now()}

  // The three reads are independent; fan out and join. Failures are
  // collected per fact, never propagated: a chain read failure is a
  // non-fatal signal, not a denial.
  g, gctx := errgroup.WithContext(ctx)
  var enrolledFailed, claimedFailed, countFailed bool

  g.Go(func() error {
    v, err := s.readBool(gctx, wallet, tokenID, "enrolled", enrollmentFactTTL, func(c context.Context) (bool, error) {
      return s.badge.IsEnrolled(c, wallet, tokenID)
    })
    if err != nil {
      s.log.Warn("Chain read failed", "fact", "enrolled", "wallet", wallet.Hex(), "token_id", tokenID, "error", err)
      enrolledFailed = true
      return nil
    }
    facts.Enrolled = v
    return nil
  })
  g.Go(func() error {
    v, err := s.readBool(gctx, wallet, tokenID, "claimed", enrollmentFactTTL, func(c context.Context) (bool, error) {
      return s.badge.HasClaimed(c, wallet, tokenID)
    })
    if err != nil {
      s.log.Warn("Chain read failed", "fact", "claimed", "wallet", wallet.Hex(), "token_id", tokenID, "error", err)
      claimedFailed = true
      return nil
    }
    facts.Claimed = v
    return nil
  })
  g.Go(func() error {
    prefix := s.keyPrefix(wallet, tokenID)
    v, err := s.readUint(gctx, prefix, prefix+"modulesCompletedCount", moduleFactTTL, func(c context.Context) (uint64, error) {
      return s.badge.ModulesCompletedCount(c, wallet, tokenID)
    })
    if err != nil {
      s.log.Warn("Chain read failed", "fact", "modulesCompletedCount", "wallet", wallet.Hex(), "token_id", tokenID, "error", err)
      countFailed = true
      return nil
    }
    facts.ModulesCompleted = v
    return nil
  })
  _ = g.Wait()

  facts.ReadFailed = enrolledFailed || claimedFailed || countFailed
  return facts
}

func (s *chainFactService) ModuleCompleted(ctx context.Context, wallet chain.Address, tokenID uint64, moduleIndex int) (bool, error) {
  ctx, cancel := context.WithTimeout(ctx, chainReadTimeout)
  defer cancel()

  prefix := s.keyPrefix(wallet, tokenID)
  key := fmt.Sprintf("%smoduleCompleted:%d", prefix, moduleIndex)
  return s.readBoolKey(ctx, prefix, key, moduleFactTTL, func(c context.Context) (bool, error) {
    return s.badge.IsModuleCompleted(c, wallet, tokenID, moduleIndex)
  })
}

func (s *chainFactService) Invalidate(ctx context.Context, wallet chain.Address, tokenID uint64) {
  prefix := s.keyPrefix(wallet, tokenID)
  // The generation advances before the delete so a read already in
  // flight sees the advance and discards its result instead of
  // re-caching pre-invalidation state.
  s.advanceGeneration(prefix)
  if s.cache == nil {
    return
  }
  if err := s.cache.DeleteByPrefix(ctx, prefix); err != nil {
    s.log.Warn("Fact cache invalidation failed", "prefix", prefix, "error", err)
  }
}

func (s *chainFactService) readBool(ctx context.Context, wallet chain.Address, tokenID uint64, fact string, ttl time.Duration, read func(context.Context) (bool, error)) (bool, error) {
  prefix := s.keyPrefix(wallet, tokenID)
  return s.readBoolKey(ctx, prefix, prefix+fact, ttl, read)
}

func (s *chainFactService) readBoolKey(ctx context.Context, prefix, key string, ttl time.Duration, read func(context.Context) (bool, error)) (bool, error) {
  if s.cache != nil {
    if v, found, err := s.cache.GetBool(ctx, key); err == nil && found {
      return v, nil
    }
  }

  // Collapse concurrent identical misses into one chain call.
  v, err, _ := s.sf.Do(key, func() (interface{}, error) {
    startGen := s.generation(prefix)
    value, err := read(ctx)
    if err != nil {
      // Failures are never cached.
      return false, err
    }
    // A stale result is still returned to the caller, but it must not
    // outlive the request in the cache once the pair was invalidated.
    if s.cache != nil && s.generation(prefix) == startGen {
      if cerr := s.cache.SetBool(ctx, key, value, ttl); cerr != nil {
        s.log.Debug("Fact cache write failed", "key", key, "error", cerr)
      }
    }
    return value, nil
  })
  if err != nil {
    return false, err
  }
  return v.(bool), nil
}

func (s *chainFactService) readUint(ctx context.Context, prefix, key string, ttl time.Duration, read func(context.Context) (uint64, error)) (uint64, error) {
  if s.cache != nil {
    if v, found, err := s.cache.GetUint(ctx, key); err == nil && found {
      return v, nil
    }
  }

  v, err, _ := s.sf.Do(key, func() (interface{}, error) {
    startGen := s.generation(prefix)
    value, err := read(ctx)
    if err != nil {
      return uint64(0), err
    }
    if s.cache != nil && s.generation(prefix) == startGen {
      if cerr := s.cache.SetUint(ctx, key, value, ttl); cerr != nil {
        s.log.Debug("Fact cache write failed", "key", key, "error", cerr)
      }
    }
    return value, nil
  })
  if err != nil {
    return 0, err
  }
  return v.(uint64), nil
}
