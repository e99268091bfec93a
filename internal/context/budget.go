package context

// Budget trims a RagContext to a token limit when the system prompt is
// composed. Each non-empty block gets an equal share of the limit; a block
// that needs less than its share hands the rest to the others, so a large
// catalog cannot starve services or FAQs.
type Budget struct {
	counter   Counter
	maxTokens int
}

// NewBudget creates a Budget. A nil counter or a non-positive maxTokens
// disables trimming.
func NewBudget(counter Counter, maxTokens int) *Budget {
	return &Budget{counter: counter, maxTokens: maxTokens}
}

// Fit returns rc trimmed to the budget. rc is never modified; lines are
// dropped from the end of each block. A nil Budget returns rc unchanged.
func (b *Budget) Fit(rc *RagContext) *RagContext {
	if b == nil || b.counter == nil || b.maxTokens <= 0 || rc == nil {
		return rc
	}

	blocks := [][]string{rc.CatalogLines, rc.ServiceLines, rc.FAQLines}
	costs := make([][]int, len(blocks))
	totals := make([]int, len(blocks))
	for i, lines := range blocks {
		costs[i] = make([]int, len(lines))
		for j, l := range lines {
			costs[i][j] = b.counter.Count(l)
			totals[i] += costs[i][j]
		}
	}

	shares := allocate(totals, b.maxTokens)
	out := &RagContext{}
	kept := make([][]string, len(blocks))
	for i, lines := range blocks {
		kept[i] = make([]string, 0, len(lines))
		left := shares[i]
		for j, l := range lines {
			if costs[i][j] > left {
				break
			}
			left -= costs[i][j]
			kept[i] = append(kept[i], l)
		}
	}
	out.CatalogLines, out.ServiceLines, out.FAQLines = kept[0], kept[1], kept[2]
	return out
}

// allocate splits limit across blocks of the given total cost. Blocks that
// fit inside an equal share are granted their full cost and the surplus is
// shared again among the rest.
func allocate(totals []int, limit int) []int {
	shares := make([]int, len(totals))
	open := make([]bool, len(totals))
	n := 0
	for i, t := range totals {
		if t > 0 {
			open[i] = true
			n++
		}
	}
	remaining := limit
	for n > 0 {
		share := remaining / n
		granted := false
		for i, t := range totals {
			if open[i] && t <= share {
				shares[i] = t
				remaining -= t
				open[i] = false
				n--
				granted = true
			}
		}
		if granted {
			continue
		}
		for i := range totals {
			if open[i] {
				shares[i] = share
			}
		}
		break
	}
	return shares
}
