package core

type ctxKey string

const (
	CtxKeyUserID   ctxKey = ctxKey("userId")
	CtxKeyUsername ctxKey = ctxKey("username")
)
