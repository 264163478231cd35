package service

import (
	"sort"

	"oneplace/internal/domain/model"
)

// MenuTree BuildMenuTree 的结果
type MenuTree struct {
	Items []model.MenuItem
	// Orphans parent_id 指向不存在节点、被提升为根的节点 id
	Orphans []int64
	// CycleRoots 成环（无法从任何根到达）时被强制提升为根的节点 id
	CycleRoots []int64
}

// BuildMenuTree 将扁平节点组装为 MenuItem 森林。
// 节点按 id 建索引，父子关系通过索引解析；根与同级节点均按 id 升序。
// 每个节点在结果中恰好出现一次；无子节点时 Childs 为 nil。
func BuildMenuTree(nodes []model.NavigationNode) MenuTree {
	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}
	byID := make([]int, len(nodes))
	for i := range nodes {
		byID[i] = i
	}
	sort.Slice(byID, func(a, b int) bool { return nodes[byID[a]].ID < nodes[byID[b]].ID })

	res := MenuTree{Items: make([]model.MenuItem, 0)}
	children := make(map[int64][]int)
	var roots []int
	for _, i := range byID {
		n := nodes[i]
		if n.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		if _, ok := index[*n.ParentID]; !ok {
			res.Orphans = append(res.Orphans, n.ID)
			roots = append(roots, i)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], i)
	}

	visited := make([]bool, len(nodes))
	var build func(i int) model.MenuItem
	build = func(i int) model.MenuItem {
		visited[i] = true
		n := nodes[i]
		item := model.MenuItem{Title: n.Title, Icon: n.Icon, Link: n.Link}
		for _, c := range children[n.ID] {
			if visited[c] {
				continue
			}
			item.Childs = append(item.Childs, build(c))
		}
		return item
	}
	for _, i := range roots {
		res.Items = append(res.Items, build(i))
	}
	// 剩余未访问节点只可能处于环中
	for _, i := range byID {
		if visited[i] {
			continue
		}
		res.CycleRoots = append(res.CycleRoots, nodes[i].ID)
		res.Items = append(res.Items, build(i))
	}
	return res
}
