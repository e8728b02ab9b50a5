package cmds

import (
	"fmt"
	"os"

	"github.com/agora-gov/agora/util"
)

type VersionCommand struct{}

func (cmd *VersionCommand) Run(version util.Version) error {
	if err := version.IsValid(nil); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(os.Stdout, version.String())

	return nil
}
