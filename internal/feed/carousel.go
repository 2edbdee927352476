package feed

// Carousel tracks which of n cards is shown. The index stays within
// [0, n-1] and never wraps.
type Carousel struct {
	index int
	size  int
}

// Reset points at the first of size cards.
func (c *Carousel) Reset(size int) {
	c.index = 0
	c.size = max(size, 0)
}

// Resize keeps the current card where possible after the list shrank.
func (c *Carousel) Resize(size int) {
	c.size = max(size, 0)
	if c.index >= c.size {
		c.index = max(c.size-1, 0)
	}
}

func (c *Carousel) Next() bool { return c.Select(c.index + 1) }

func (c *Carousel) Prev() bool { return c.Select(c.index - 1) }

// Select jumps to card i. Out of range is a no-op.
func (c *Carousel) Select(i int) bool {
	if i < 0 || i >= c.size || i == c.index {
		return false
	}
	c.index = i
	return true
}

func (c *Carousel) Index() int { return c.index }

func (c *Carousel) Len() int { return c.size }
