package browser

import (
	"regexp"
	"sync"
)

// Capture holds at most one request URL matching a pattern. The first match
// fills the slot and is delivered on Done; later matches are ignored.
type Capture struct {
	pattern *regexp.Regexp
	once    sync.Once
	done    chan string
}

func NewCapture(pattern *regexp.Regexp) *Capture {
	return &Capture{
		pattern: pattern,
		done:    make(chan string, 1),
	}
}

// Offer records url if it matches and the slot is still empty. It never
// blocks and reports whether url was taken.
func (c *Capture) Offer(url string) bool {
	if !c.pattern.MatchString(url) {
		return false
	}
	taken := false
	c.once.Do(func() {
		c.done <- url
		taken = true
	})
	return taken
}

// Done delivers the captured URL once the slot is filled.
func (c *Capture) Done() <-chan string {
	return c.done
}
