package main

import (
	"context"

	"github.com/DenisKhanov/HashieldBot/internal/app/tbot"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()

	app, err := tbot.NewApp(ctx)
	if err != nil {
		logrus.Fatalf("Failed to init app: %v", err)
	}
	if err = app.Run(ctx); err != nil {
		logrus.Fatalf("Failed to run app: %v", err)
	}
}
