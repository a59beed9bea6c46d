package vector

import (
	"github.com/tdewolff/minify/v2"
	minifysvg "github.com/tdewolff/minify/v2/svg"
)

// Optimizer shrinks assembled sprite markup. Implementations may fail;
// the assembler treats that as a non-fatal condition.
type Optimizer interface {
	Optimize(svg string) (string, error)
}

type minifyOptimizer struct {
	m *minify.M
}

func newMinifyOptimizer() *minifyOptimizer {
	m := minify.New()
	m.AddFunc("image/svg+xml", minifysvg.Minify)
	return &minifyOptimizer{m: m}
}

func (o *minifyOptimizer) Optimize(svg string) (string, error) {
	return o.m.String("image/svg+xml", svg)
}
