// Command apkit serves local ActivityPub actors and talks to remote ones.
package main

import (
	"context"
	"os"

	"github.com/containerd/log"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.L.WithError(err).Error("apkit failed")
		os.Exit(1)
	}
}
