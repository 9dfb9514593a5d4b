package layout

import (
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/schema"
)

// Compiler compiles definitions once and shares the result. It is safe for
// concurrent use. Definitions must not be mutated after their first Compile.
type Compiler struct {
	cache *xsync.MapOf[cacheKey, *compiled]
}

type cacheKey struct {
	def  *schema.Definition
	opts Options
}

type compiled struct {
	layout *Layout
	err    error
}

func NewCompiler() *Compiler {
	return &Compiler{
		cache: xsync.NewMapOf[cacheKey, *compiled](),
	}
}

var defaultCompiler = NewCompiler()

// Default returns the process-wide compiler.
func Default() *Compiler { return defaultCompiler }

// Compile returns the cached layout for def and opts, compiling it on first use.
// Compile errors are cached as well.
func (c *Compiler) Compile(def *schema.Definition, opts Options) (*Layout, error) {
	res, loaded := c.cache.LoadOrCompute(cacheKey{def: def, opts: opts}, func() *compiled {
		l, err := Compile(def, opts)
		return &compiled{layout: l, err: err}
	})
	if !loaded {
		logCompiled(res)
	}
	return res.layout, res.err
}

// Len returns the number of cached layouts.
func (c *Compiler) Len() int { return c.cache.Size() }

// Forget drops the cached layout of def for every option set.
func (c *Compiler) Forget(def *schema.Definition) {
	c.cache.Range(func(k cacheKey, _ *compiled) bool {
		if k.def == def {
			c.cache.Delete(k)
		}
		return true
	})
}

func logCompiled(res *compiled) {
	if res.err != nil {
		Logger().Debug("layout compile failed", zap.Error(res.err))
		return
	}
	l := res.layout
	Logger().Debug("layout compiled",
		zap.Int("base_size", l.BaseSize()),
		zap.Int("contribs", len(l.Contribs())),
		zap.Int("encode_ops", len(l.EncodeOps())),
		zap.Int("decode_ops", len(l.DecodeOps())),
		zap.Int("validators", len(l.Validators)),
		zap.Bool("padded", l.Padded),
	)
}
