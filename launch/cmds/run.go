package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agora-gov/agora/launch"
	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/localtime"
)

// RunCommand deploys the governance system from a design file and serves
// the caller surface until interrupted.
type RunCommand struct {
	*BaseCommand
	Design       string        `arg:"" name:"design" help:"design file" type:"existingfile"`
	NTPServer    string        `name:"time-sync" help:"ntp server for time sync" optional:""`
	NTPInterval  time.Duration `name:"time-sync-interval" help:"time sync interval" default:"10m"`
	GraceTimeout time.Duration `name:"grace-timeout" help:"shutdown grace timeout" default:"10s"`
	deployment   *launch.Deployment
}

func NewRunCommand() RunCommand {
	return RunCommand{
		BaseCommand: NewBaseCommand("run"),
	}
}

func (cmd *RunCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return err
	}

	design, err := launch.LoadDesignFromFile(cmd.Design)
	if err != nil {
		return err
	}

	dp, err := launch.NewDeployment(design, localtime.UTCNow)
	if err != nil {
		return err
	}
	_ = dp.SetLogging(cmd.RootLogging())
	cmd.deployment = dp

	sv, err := dp.Server()
	if err != nil {
		return err
	}

	var syncer *localtime.TimeSyncer
	if len(cmd.NTPServer) > 0 {
		i, err := localtime.NewTimeSyncer(cmd.NTPServer, cmd.NTPInterval)
		if err != nil {
			return err
		}
		_ = i.SetLogging(cmd.RootLogging())

		if err := i.Start(); err != nil {
			return err
		}

		localtime.SetTimeSyncer(i)
		syncer = i
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(sv.Start)
	eg.Go(func() error {
		<-egctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), cmd.GraceTimeout)
		defer cancel()

		if syncer != nil {
			_ = syncer.Stop()
		}

		return sv.Stop(sctx)
	})

	cmd.Log().Info().Str("bind", design.Network.Bind).Msg("started")

	return eg.Wait()
}
