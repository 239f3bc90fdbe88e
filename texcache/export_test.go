package texcache

// queued returns the number of fetches waiting for Poll.
func (c *Cache) queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
