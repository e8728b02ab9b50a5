package cmds

import (
	"os"

	"github.com/pkg/errors"

	"github.com/agora-gov/agora/launch"
	"github.com/agora-gov/agora/util"
)

var defaultDesign = `token:
  symbol: AGORA
  mints:
    - account: alice
      amount: "600"
    - account: bob
      amount: "400"
  delegations:
    - from: alice
      to: alice
    - from: bob
      to: bob
policy:
  voting-delay: 1m
  voting-period: 168h
  grace-period: 336h
  proposal-threshold: "0"
  quorum:
    numerator: 4
    denominator: 100
timelock:
  min-delay: 48h
  seal-admin: true
network:
  bind: localhost:54320
  cache: "gcache:?type=lru&size=500&expire=3s"
  rate-limit:
    period: 1m
    limit: 300
boxes:
  - address: box
    value: 0
`

// InitCommand writes a usable design file and checks it loads.
type InitCommand struct {
	*BaseCommand
	Design string `arg:"" name:"design" help:"design file to create"`
	Force  bool   `help:"overwrite existing design file"`
}

func NewInitCommand() InitCommand {
	return InitCommand{
		BaseCommand: NewBaseCommand("init"),
	}
}

func (cmd *InitCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return err
	}

	if _, err := os.Stat(cmd.Design); err == nil && !cmd.Force {
		return errors.Errorf("design file already exists, %q", cmd.Design)
	}

	if err := os.WriteFile(cmd.Design, []byte(defaultDesign), 0o600); err != nil {
		return err
	}

	if _, err := launch.LoadDesignFromFile(cmd.Design); err != nil {
		return err
	}

	cmd.Log().Info().Str("design", cmd.Design).Msg("design file created")

	return nil
}
