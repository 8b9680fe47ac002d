package main

import (
	"context"
	"errors"

	l "github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

func main() {
	lg := l.InitLogger("test", l.LevelDebug)

	ctx := context.Background()

	if err := SomeLogic(ctx); err != nil {
		lg.Error(wrap.ErrorCtx(ctx, err), "error occured", err)
	}
}

func SomeLogic(ctx context.Context) error {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:    "test",
		UserID:    "123",
		RequestID: "request_123",
	})

	someError := errors.New("some error")

	return wrap.Error(ctx, someError)
}
