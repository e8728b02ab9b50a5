package cmds

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/logging"
)

var (
	DefaultName = "agora"
	MainOptions = kong.HelpOptions{NoAppSummary: false, Compact: true, Summary: false, Tree: true}
)

var defaultKongOptions = []kong.Option{
	kong.Name(DefaultName),
	kong.UsageOnError(),
	kong.ConfigureHelp(MainOptions),
	LogVars,
}

func Context(args []string, flags interface{}, options ...kong.Option) (*kong.Context, error) {
	ops := make([]kong.Option, len(defaultKongOptions)+len(options))
	copy(ops, defaultKongOptions)
	copy(ops[len(defaultKongOptions):], options)

	p, err := kong.New(flags, ops...)
	if err != nil {
		return nil, err
	}

	return p.Parse(args)
}

type BaseCommand struct {
	*logging.Logging
	*LogFlags
	LogOutput io.Writer `kong:"-"`
	version   util.Version
	root      *logging.Logging
}

func NewBaseCommand(name string) *BaseCommand {
	return &BaseCommand{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", fmt.Sprintf("command-%s", name))
		}),
		LogFlags:  &LogFlags{},
		LogOutput: os.Stderr,
	}
}

func (cmd *BaseCommand) Initialize(flags interface{}, version util.Version) error {
	if cmd.LogOutput == nil {
		cmd.LogOutput = os.Stderr
	}

	root, err := SetupLoggingFromFlags(cmd.LogFlags, cmd.LogOutput)
	if err != nil {
		return err
	}

	cmd.root = root
	_ = cmd.SetLogging(root)

	_, _ = maxprocs.Set(maxprocs.Logger(func(f string, s ...interface{}) {
		cmd.Log().Debug().Msgf(f, s...)
	}))

	cmd.Log().Debug().Interface("flags", flags).Msg("flags parsed")

	if err := version.IsValid(nil); err != nil {
		return err
	}
	cmd.version = version

	return nil
}

func (cmd *BaseCommand) Version() util.Version {
	return cmd.version
}

// RootLogging is shared with the deployed components.
func (cmd *BaseCommand) RootLogging() *logging.Logging {
	return cmd.root
}
