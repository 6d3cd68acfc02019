package backend

import (
	"go.uber.org/fx"
)

var (
	Module = fx.Provide(
		NewGormClient,
		NewGorm,
		func(g *Gorm) Bookmarks { return g },
		func(g *Gorm) Collections { return g.Collections() },
		func(g *Gorm) Users { return g },
	)
)
