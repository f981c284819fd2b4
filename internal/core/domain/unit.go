package domain

import (
	"sort"
	"time"
)

// Unit is an organizational grouping (department) used as the basis for
// scoped row visibility. Units form a tree via ParentID.
type Unit struct {
	ID        string
	Name      string
	ParentID  *string
	Sort      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnitNode is a unit with its assembled children.
type UnitNode struct {
	Unit
	Children []*UnitNode `json:"children"`
}

// BuildUnitTree assembles the unit forest from a flat list. Same contract as
// BuildPermissionTree: one grouping pass, no recursion, orphans and cycle
// members are dropped.
func BuildUnitTree(items []Unit) []*UnitNode {
	nodes := make(map[string]*UnitNode, len(items))
	for i := range items {
		nodes[items[i].ID] = &UnitNode{Unit: items[i]}
	}

	roots := make([]*UnitNode, 0)
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

	queue := [][]*UnitNode{roots}
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

	return roots
}
