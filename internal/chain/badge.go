package chain

import (
	"context"
	"fmt"
)

// Module indices are 0-based everywhere off-chain and 1-based on-chain.
// This file is the only place the conversion happens.

func ToChainIndex(moduleIndex int) uint64 {
	return uint64(moduleIndex) + 1
}

func FromChainIndex(chainIndex uint64) int {
	return int(chainIndex) - 1
}

// Badge abstracts one deployed badge contract. Its semantics are those
// of the optimized ABI; the legacy implementation papers over the older
// claim/claimed/balanceOf vocabulary so nothing above this layer ever
// branches on contract version.
//
// All readers take public, 0-based module indices. Read methods are
// pure; the *Calldata methods produce the payload for the write path
// so reads and writes always target the same address and ABI.
type Badge interface {
	Version() ContractVersion
	ContractAddress() Address

	IsEnrolled(ctx context.Context, user Address, tokenID uint64) (bool, error)
	HasClaimed(ctx context.Context, user Address, tokenID uint64) (bool, error)
	IsModuleCompleted(ctx context.Context, user Address, tokenID uint64, moduleIndex int) (bool, error)
	ModulesCompletedCount(ctx context.Context, user Address, tokenID uint64) (uint64, error)

	EnrollCalldata(tokenID uint64) []byte
	CompleteModuleCalldata(tokenID uint64, moduleIndex int) []byte
}

// NewBadge builds the Badge for a configured network. The network is
// the single source of both the address and the ABI variant.
func NewBadge(network Network, rpc RPCClient) (Badge, error) {
	switch network.ContractVersion {
	case VersionLegacy:
		return &legacyBadge{addr: network.ContractAddress, rpc: rpc}, nil
	case VersionOptimized:
		return &optimizedBadge{addr: network.ContractAddress, rpc: rpc}, nil
	default:
		return nil, fmt.Errorf("unknown contract version %q", network.ContractVersion)
	}
}

// legacyBadge speaks the original SimpleBadge ABI.
type legacyBadge struct {
	addr Address
	rpc  RPCClient
}

func (b *legacyBadge) Version() ContractVersion { return VersionLegacy }
func (b *legacyBadge) ContractAddress() Address { return b.addr }

func (b *legacyBadge) IsEnrolled(ctx context.Context, user Address, tokenID uint64) (bool, error) {
	// The legacy contract has no enrollment flag; holding the badge is
	// the enrollment fact.
	ret, err := b.rpc.EthCall(ctx, b.addr, calldata("balanceOf(address,uint256)", addressWord(user), uintWord(tokenID)))
	if err != nil {
		return false, err
	}
	balance, err := decodeUint64(ret)
	if err != nil {
		return false, err
	}
	return balance > 0, nil
}

func (b *legacyBadge) HasClaimed(ctx context.Context, user Address, tokenID uint64) (bool, error) {
	ret, err := b.rpc.EthCall(ctx, b.addr, calldata("claimed(address,uint256)", addressWord(user), uintWord(tokenID)))
	if err != nil {
		return false, err
	}
	return decodeBool(ret)
}

func (b *legacyBadge) IsModuleCompleted(ctx context.Context, user Address, tokenID uint64, moduleIndex int) (bool, error) {
	ret, err := b.rpc.EthCall(ctx, b.addr, calldata(
		"hasCompletedModule(address,uint256,uint256)",
		addressWord(user), uintWord(tokenID), uintWord(ToChainIndex(moduleIndex)),
	))
	if err != nil {
		return false, err
	}
	return decodeBool(ret)
}

func (b *legacyBadge) ModulesCompletedCount(ctx context.Context, user Address, tokenID uint64) (uint64, error) {
	ret, err := b.rpc.EthCall(ctx, b.addr, calldata("getModulesCompleted(address,uint256)", addressWord(user), uintWord(tokenID)))
	if err != nil {
		return 0, err
	}
	return decodeUint64(ret)
}

func (b *legacyBadge) EnrollCalldata(tokenID uint64) []byte {
	return calldata("claim(uint256)", uintWord(tokenID))
}

func (b *legacyBadge) CompleteModuleCalldata(tokenID uint64, moduleIndex int) []byte {
	return calldata("completeModule(uint256,uint256)", uintWord(tokenID), uintWord(ToChainIndex(moduleIndex)))
}

// optimizedBadge speaks the current deployment's ABI.
type optimizedBadge struct {
	addr Address
	rpc  RPCClient
}

func (b *optimizedBadge) Version() ContractVersion { return VersionOptimized }
func (b *optimizedBadge) ContractAddress() Address { return b.addr }

func (b *optimizedBadge) IsEnrolled(ctx context.Context, user Address, tokenID uint64) (bool, error) {
	ret, err := b.rpc.EthCall(ctx, b.addr, calldata("isEnrolled(address,uint256)", addressWord(user), uintWord(tokenID)))
	if err != nil {
		return false, err
	}
	return decodeBool(ret)
}

func (b *optimizedBadge) HasClaimed(ctx context.Context, user Address, tokenID uint64) (bool, error) {
	// Claiming and enrolling collapsed into one concept in the new
	// contract.
	return b.IsEnrolled(ctx, user, tokenID)
}

func (b *optimizedBadge) IsModuleCompleted(ctx context.Context, user Address, tokenID uint64, moduleIndex int) (bool, error) {
	ret, err := b.rpc.EthCall(ctx, b.addr, calldata(
		"isModuleCompleted(address,uint256,uint8)",
		addressWord(user), uintWord(tokenID), uintWord(ToChainIndex(moduleIndex)),
	))
	if err != nil {
		return false, err
	}
	return decodeBool(ret)
}

func (b *optimizedBadge) ModulesCompletedCount(ctx context.Context, user Address, tokenID uint64) (uint64, error) {
	ret, err := b.rpc.EthCall(ctx, b.addr, calldata("getModulesCompleted(address,uint256)", addressWord(user), uintWord(tokenID)))
	if err != nil {
		return 0, err
	}
	return decodeUint64(ret)
}

func (b *optimizedBadge) EnrollCalldata(tokenID uint64) []byte {
	return calldata("enroll(uint256)", uintWord(tokenID))
}

func (b *optimizedBadge) CompleteModuleCalldata(tokenID uint64, moduleIndex int) []byte {
	return calldata("completeModule(uint256,uint8)", uintWord(tokenID), uintWord(ToChainIndex(moduleIndex)))
}
