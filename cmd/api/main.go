package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/procurement/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
