package search

// Similarity is the token-overlap ratio used to merge near-duplicate
// questions: the number of tokens of a that also occur in b, divided by the
// token count of the longer text. Identical texts score 1; disjoint texts 0.
func Similarity(a, b string) float64 {
	wa, wb := Words(a), Words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		set[w] = struct{}{}
	}
	common := 0
	for _, w := range wa {
		if _, ok := set[w]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(wa), len(wb)))
}
