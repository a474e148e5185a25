package main

import (
	"os"

	"github.com/binhocut/clipforge/internal/app"
)

func main() {
	os.Exit(app.Run("api", run))
}
