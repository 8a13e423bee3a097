package qoi

// colorCache is the 64-slot window of recently seen pixels. It is
// direct-mapped: a colliding store silently replaces whatever was there,
// and both state machines replay the same stores so the slot contents
// always agree. The zero value (all zero pixels) is the required initial
// state for every encode or decode run.
type colorCache [windowLength]Pixel

func (c *colorCache) lookup(index byte) Pixel {
	return c[index]
}

func (c *colorCache) store(p Pixel) {
	c[p.Hash()] = p // We do not check for equality as copying a 4B array is faster than checking
}
