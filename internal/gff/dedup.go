package gff

// GeneSet records the genes that already received a gene line.
// Not safe for concurrent use; a conversion runs on a single goroutine.
type GeneSet struct {
	seen map[string]struct{}
}

// NewGeneSet creates an empty set.
func NewGeneSet() *GeneSet {
	return &GeneSet{seen: make(map[string]struct{})}
}

// Claim returns true the first time gene is passed, false afterwards.
func (s *GeneSet) Claim(gene string) bool {
	if _, ok := s.seen[gene]; ok {
		return false
	}
	s.seen[gene] = struct{}{}
	return true
}

// Len returns the number of distinct genes seen.
func (s *GeneSet) Len() int {
	return len(s.seen)
}
