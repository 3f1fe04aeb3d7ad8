// Command tagsync reconciles file tags between a local filesystem and
// a Nextcloud instance's system tags, per one configured set of prefix
// mappings. Run it once per desired sync pass; repetition is left to
// whatever scheduler invokes it (cron, a systemd timer, ...).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := command.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
