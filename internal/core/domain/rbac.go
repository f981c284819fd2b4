package domain

import (
	"sort"
	"time"
)

// DataScope classifies the row visibility a role grants.
type DataScope string

const (
	// ScopeAll grants unrestricted visibility.
	ScopeAll DataScope = "ALL"
	// ScopeCustom restricts visibility to the role's explicit unit set.
	ScopeCustom DataScope = "CUSTOM"
	// ScopeOwnUnit restricts visibility to the user's own unit.
	ScopeOwnUnit DataScope = "OWN_UNIT"
	// ScopeOwnUnitAndBelow is currently resolved identically to ScopeOwnUnit;
	// descendant expansion is a deliberate extension point.
	ScopeOwnUnitAndBelow DataScope = "OWN_UNIT_AND_BELOW"
	// ScopeSelf restricts visibility to rows owned by the user.
	ScopeSelf DataScope = "SELF"
)

// Valid reports whether the scope is one of the known classes.
func (s DataScope) Valid() bool {
	switch s {
	case ScopeAll, ScopeCustom, ScopeOwnUnit, ScopeOwnUnitAndBelow, ScopeSelf:
		return true
	}
	return false
}

// Role groups permissions and carries the data-scope policy.
type Role struct {
	ID        string
	Name      string
	Code      string
	DataScope DataScope
	// UnitIDs holds the explicit unit set for ScopeCustom roles.
	UnitIDs   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permission is a menu or action node in the permission tree.
type Permission struct {
	ID        string
	Name      string
	Code      string
	Type      string
	ParentID  *string
	Sort      int
	CreatedAt time.Time
}

// PermissionNode is a permission with its assembled children.
type PermissionNode struct {
	Permission
	Children []*PermissionNode `json:"children"`
}

// BuildPermissionTree assembles a forest from a flat permission list in a
// single adjacency-grouping pass. Nodes whose parent is missing, and nodes
// that sit on a parent cycle, are unreachable from any root and are dropped
// instead of being recursed into.
func BuildPermissionTree(items []Permission) []*PermissionNode {
	nodes := make(map[string]*PermissionNode, len(items))
	for i := range items {
		nodes[items[i].ID] = &PermissionNode{Permission: items[i]}
	}

	roots := make([]*PermissionNode, 0)
	for _, item := range items {
		node := nodes[item.ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok && parent != node {
			parent.Children = append(parent.Children, node)
		}
	}

	sortPermissionForest(roots)
	return roots
}

// sortPermissionForest orders siblings by sort key, then creation time,
// walking the forest iteratively.
func sortPermissionForest(roots []*PermissionNode) {
	queue := [][]*PermissionNode{roots}
	for len(queue) > 0 {
		siblings := queue[0]
		queue = queue[1:]

		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].Sort != siblings[j].Sort {
				return siblings[i].Sort < siblings[j].Sort
			}
			return siblings[i].CreatedAt.After(siblings[j].CreatedAt)
		})
		for _, node := range siblings {
			if len(node.Children) > 0 {
				queue = append(queue, node.Children)
			}
		}
	}
}
