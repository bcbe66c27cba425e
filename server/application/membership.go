package application

import "slices"

// Membership はゾーン内にいるエンティティの重複のない集合です。
type Membership struct {
	affected map[EntityID]struct{}
}

func NewMembership() *Membership {
	return &Membership{affected: make(map[EntityID]struct{})}
}

// Enter はエンティティを追加し、集合が変化したかを返します。
func (m *Membership) Enter(id EntityID) bool {
	if _, ok := m.affected[id]; ok {
		return false
	}
	m.affected[id] = struct{}{}
	return true
}

// Exit はエンティティを取り除き、集合が変化したかを返します。
func (m *Membership) Exit(id EntityID) bool {
	if _, ok := m.affected[id]; !ok {
		return false
	}
	delete(m.affected, id)
	return true
}

func (m *Membership) Has(id EntityID) bool {
	_, ok := m.affected[id]
	return ok
}

func (m *Membership) Len() int {
	return len(m.affected)
}

// Members は ID 順に並べたコピーを返します。
func (m *Membership) Members() []EntityID {
	out := make([]EntityID, 0, len(m.affected))
	for id := range m.affected {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b EntityID) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Prune は valid が false を返したエンティティを取り除き、その ID を返します。
func (m *Membership) Prune(valid func(EntityID) bool) []EntityID {
	var pruned []EntityID
	for id := range m.affected {
		if !valid(id) {
			delete(m.affected, id)
			pruned = append(pruned, id)
		}
	}
	return pruned
}
