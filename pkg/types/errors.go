package types

import "errors"

var (
	// ErrInvalidNodeID 无效的节点 ID
	ErrInvalidNodeID = errors.New("invalid node ID: must be 32 bytes Base58")

	// ErrEmptyNodeID 空节点 ID
	ErrEmptyNodeID = errors.New("empty node ID")

	// ErrUnknownClassification 无法识别的分类名称
	ErrUnknownClassification = errors.New("unknown classification")

	// ErrUnknownStrikeReason 无法识别的惩罚原因
	ErrUnknownStrikeReason = errors.New("unknown strike reason")
)
