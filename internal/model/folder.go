package model

import "strings"

// BaseKind describes the overall shape of a folder template.
type BaseKind string

// Base template kinds.
const (
	BaseFlat         BaseKind = "FLAT"
	BaseHierarchical BaseKind = "HIERARCHICAL"
	BaseDeep         BaseKind = "DEEP"
)

// StrategyKind selects how documents inside a category are grouped.
type StrategyKind string

// Organization strategies.
const (
	ByTime     StrategyKind = "BY_TIME"
	ByProject  StrategyKind = "BY_PROJECT"
	ByPriority StrategyKind = "BY_PRIORITY"
	ByStatus   StrategyKind = "BY_STATUS"
)

// OrganizationStrategy lists the path patterns and variables a strategy contributes.
type OrganizationStrategy struct {
	Name      string       `json:"name"`
	Kind      StrategyKind `json:"kind"`
	Patterns  []string     `json:"patterns"`
	Variables []string     `json:"variables"`
}

// FolderTemplate is the effective template after all layers are merged.
type FolderTemplate struct {
	Strategy  *OrganizationStrategy `json:"organization_strategy,omitempty"`
	BaseKind  BaseKind              `json:"base_kind"`
	Structure []string              `json:"structure"`
	MaxDepth  int                   `json:"max_depth"`
}

// ResolvedPath is a concrete folder inside the knowledge base.
type ResolvedPath struct {
	Segments []string `json:"segments"`
	// Created reports that at least one segment does not exist yet.
	Created bool `json:"created"`
	// Redirected reports that the new-folder policy sent the document to a fallback folder.
	Redirected bool `json:"redirected"`
}

// Key returns the slash-joined form used by the folder index and the ledger.
func (p ResolvedPath) Key() string {
	return JoinSegments(p.Segments)
}

// JoinSegments joins folder segments with forward slashes.
func JoinSegments(segments []string) string {
	return strings.Join(segments, "/")
}
