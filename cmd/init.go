package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"anisync/internal/shared"
)

// Init writes a starter config file from the embedded template.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Created %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Create an API client at https://anilist.co/settings/developer\n")
	r.writePlain("2. Fill in [auth] client_id and client_secret in %s\n", path)
	r.writePlain("3. Run 'anisync auth login <username>' for the destination account\n")

	return nil
}
