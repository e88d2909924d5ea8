package main

import (
	"log"

	"github.com/MrSnakeDoc/hoarder/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ hoarderd failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ hoarderd failed: %v", err)
	}
}
