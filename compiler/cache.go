package compiler

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ava12/packrat/grammar"
	"github.com/ava12/packrat/ops"
)

// Cache keeps recently compiled programs keyed by grammar fingerprint.
// Cache is safe for concurrent use.
type Cache struct {
	programs *lru.Cache[uint64, *ops.Program]
}

// NewCache creates cache holding up to size programs.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		return nil, cacheSizeError(size)
	}

	programs, e := lru.New[uint64, *ops.Program](size)
	if e != nil {
		return nil, e
	}
	return &Cache{programs: programs}, nil
}

// Compile returns cached program for grammar or compiles and caches it.
// hit reports whether the program was taken from cache.
func (c *Cache) Compile(g *grammar.Grammar, opts ...Option) (p *ops.Program, hit bool, e error) {
	key := g.Fingerprint()
	p, hit = c.programs.Get(key)
	if hit {
		return
	}

	p, e = Compile(g, opts...)
	if e == nil {
		c.programs.Add(key, p)
	}
	return
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	return c.programs.Len()
}

// Purge removes all cached programs.
func (c *Cache) Purge() {
	c.programs.Purge()
}
