package space

import (
	"github.com/phil-mansfield/sphcell/geom"
)

// ActivateSelf marks the sorts that a self traversal of c will need. It
// makes the same recursion decisions as the traversal itself.
func (s *Space) ActivateSelf(c *Cell) {
	if c.Count() == 0 || !c.IsActive() {
		return
	}
	if !s.CanRecurseSelf(c) {
		return
	}

	for j := 0; j < 8; j++ {
		cj := s.Progeny(c, j)
		if cj == nil {
			continue
		}
		s.ActivateSelf(cj)
		for k := j + 1; k < 8; k++ {
			if ck := s.Progeny(c, k); ck != nil {
				s.ActivatePair(cj, ck)
			}
		}
	}
}

// ActivatePair marks the sorts that a pair traversal of a and b will need.
func (s *Space) ActivatePair(a, b *Cell) {
	if a.Count() == 0 || b.Count() == 0 {
		return
	}
	if !a.IsActive() && !b.IsActive() {
		return
	}

	p, ok := geom.Classify(a.Loc, a.Width, b.Loc, &s.Box)
	if !ok {
		Fatalf(Geometry, s.TiCurrent, []int32{a.ID, b.ID},
			"Cells overlap and cannot form a pair.")
	}
	if p.Flip {
		a, b = b, a
	}

	if s.CanRecursePair(a, b) {
		for _, cp := range geom.ChildPairs[p.Sid] {
			ca, cb := s.Progeny(a, cp.A), s.Progeny(b, cp.B)
			if ca != nil && cb != nil {
				s.ActivatePair(ca, cb)
			}
		}
		return
	}

	bit := uint16(1) << uint(p.Sid)
	a.RequiresSorts |= bit
	b.RequiresSorts |= bit
}

// SortRequests returns the IDs of every cell with at least one requested
// sort.
func (s *Space) SortRequests() []int32 {
	ids := []int32{}
	for i := range s.Cells {
		if s.Cells[i].RequiresSorts != 0 {
			ids = append(ids, s.Cells[i].ID)
		}
	}
	return ids
}

// DoSorts builds every sort requested for c that is missing or stale and
// clears the requests.
func (s *Space) DoSorts(c *Cell) {
	for sid := 0; sid < geom.NumSids; sid++ {
		if c.RequiresSorts&(1<<uint(sid)) == 0 {
			continue
		}
		if !s.SortValid(c, sid) {
			s.Sort(c, sid)
		}
	}
	c.RequiresSorts = 0
}
