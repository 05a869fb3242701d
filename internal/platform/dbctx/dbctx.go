package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries a request context and, for SQL stores, an optional transaction.
// REST-backed repos only read Ctx.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func From(ctx context.Context) Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return Context{Ctx: ctx}
}

// DB returns the transaction when set, else fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	txx := c.Tx
	if txx == nil {
		txx = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return txx.WithContext(ctx)
}

func (c Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
