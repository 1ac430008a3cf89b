package model

// Group is one partition cell: the group identifier and the indices of its
// rows in table order.
type Group struct {
	ID   Value
	Rows []int
}

// GroupPartition maps group identifiers to row indices. Groups keep the
// order in which their first row appears. It is not modified after creation.
type GroupPartition struct {
	groups []Group
	index  map[string]int
	// unassigned rows have a missing group identifier
	unassigned []int
}

// PartitionByValues groups row indices by the identifier in ids[i].
// Rows with a missing identifier are collected as unassigned.
func PartitionByValues(ids []Value) *GroupPartition {
	p := &GroupPartition{index: make(map[string]int)}
	for row, id := range ids {
		if id.IsMissing() {
			p.unassigned = append(p.unassigned, row)
			continue
		}
		key := id.Key()
		pos, ok := p.index[key]
		if !ok {
			pos = len(p.groups)
			p.index[key] = pos
			p.groups = append(p.groups, Group{ID: id})
		}
		p.groups[pos].Rows = append(p.groups[pos].Rows, row)
	}
	return p
}

// SingleGroup puts rows 0..n-1 into one group with a missing identifier.
func SingleGroup(n int) *GroupPartition {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return &GroupPartition{
		groups: []Group{{ID: MissingValue(), Rows: rows}},
		index:  map[string]int{MissingValue().Key(): 0},
	}
}

// Groups returns the groups in first-appearance order.
func (p *GroupPartition) Groups() []Group {
	return p.groups
}

// Len returns the number of groups.
func (p *GroupPartition) Len() int {
	return len(p.groups)
}

// Lookup returns the group with the given identifier.
func (p *GroupPartition) Lookup(id Value) (Group, bool) {
	pos, ok := p.index[id.Key()]
	if !ok {
		return Group{}, false
	}
	return p.groups[pos], true
}

// Unassigned returns the rows that belong to no group.
func (p *GroupPartition) Unassigned() []int {
	return p.unassigned
}
