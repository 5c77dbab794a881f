package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/veigalabs/chatdesk/internal/app"
	"github.com/veigalabs/chatdesk/internal/config"
	"github.com/veigalabs/chatdesk/internal/profile"
	"github.com/veigalabs/chatdesk/internal/tui"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	configPath := profile.ConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath, config.Default()); err != nil {
			fmt.Fprintf(os.Stderr, "error: write default config: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "wrote %s; set backend_url and run again\n", configPath)
		os.Exit(1)
	}

	configDefault := ""
	if cfg, err := config.Load(configPath); err == nil {
		configDefault = cfg.DefaultProfile
	}

	profileName := profile.Resolve(*profileFlag, configDefault)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var console *tui.App
	fxApp := fx.New(
		app.Module(app.Params{ProfileName: profileName}),
		fx.Populate(&console),
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := console.Run()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancelStop()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
