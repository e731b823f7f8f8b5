// Command server runs the ArmyStay hotel API.
package main

import (
	"log/slog"
	"os"

	"github.com/armystay/hotels/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		// Run installs the configured logger as the default once config loads.
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
