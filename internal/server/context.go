package server

import (
	"context"
	"time"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyRequestTime
)

// annotateRequest stamps the request context with its ID and arrival time.
func annotateRequest(ctx context.Context, id string, at time.Time) context.Context {
	ctx = context.WithValue(ctx, ctxKeyRequestID, id)
	return context.WithValue(ctx, ctxKeyRequestTime, at)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

func requestTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(ctxKeyRequestTime).(time.Time)
	return t
}
