// Package main contains a command to run the walk controller against a
// simulated hexapod and stream its gait telemetry.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"go.viam.com/utils"

	"github.com/ZombyDogs/syropod-highlevel-controller/robotmodel"
	"github.com/ZombyDogs/syropod-highlevel-controller/walk"
)

var logger = golog.NewDevelopmentLogger("walker")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,usage=path to a walk controller config file"`
	Speed      int    `flag:"speed,default=50,usage=normalised forward speed as a percentage in [0,100]"`
	Curvature  int    `flag:"curvature,default=0,usage=turn curvature as a percentage in [-100,100]"`
	Duration   int    `flag:"duration,default=10,usage=seconds to walk before stopping"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg := walk.DefaultConfig()
	if argsParsed.ConfigFile != "" {
		data, err := os.ReadFile(argsParsed.ConfigFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return err
		}
	}

	controller, err := walk.NewWalkController(robotmodel.DefaultHexapod(), cfg, logger)
	if err != nil {
		return err
	}

	return runWalk(ctx, controller, cfg, argsParsed, logger)
}

func runWalk(ctx context.Context, controller *walk.WalkController, cfg walk.Config, args Arguments, logger golog.Logger) error {
	clk := clock.New()
	tickDuration := time.Duration(cfg.TimeDelta * float64(time.Second))
	ticker := clk.Ticker(tickDuration)
	defer ticker.Stop()

	walkTicks := int(float64(args.Duration) / cfg.TimeDelta)
	input := r2.Point{X: float64(args.Speed) / 100.0}
	curvature := float64(args.Curvature) / 100.0

	utils.ContextMainReadyFunc(ctx)()
	for tick := 0; ; tick++ {
		if !utils.SelectContextOrWaitChan(ctx, ticker.C) {
			return ctx.Err()
		}

		command := input
		if tick >= walkTicks {
			command = r2.Point{}
		}
		if err := controller.Update(command, curvature); err != nil {
			return err
		}

		if tick%controller.PhaseLength() == 0 {
			linear, angular := controller.BodyVelocity()
			pose := controller.BodyPose()
			logger.Infow("gait telemetry",
				"state", controller.WalkState(),
				"speed", linear.Norm(),
				"angular_velocity", angular,
				"x", pose.Position.X,
				"y", pose.Position.Y,
				"yaw", pose.Yaw,
			)
		}

		if tick >= walkTicks && controller.WalkState() == walk.StateStopped {
			logger.Infow("walk complete", "ticks", tick, "pose", controller.BodyPose())
			return nil
		}
	}
}
