package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"advent/internal/adapters/qrcode"
	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/cli"
	"advent/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var CLI struct {
	Version kong.VersionFlag
	EnvFile string `help:"Read settings from this .env file." type:"path" name:"env-file"`
	Data    string `help:"Message data file (defaults to ADVENT_DATA_FILE)." type:"path"`

	Validate     cli.ValidateCmd     `cmd:"" help:"Check the message data file."`
	Links        cli.LinksCmd        `cmd:"" help:"Print the door links for every kid."`
	QR           cli.QRCmd           `cmd:"" name:"qr" help:"Write a zip of QR codes for every active door."`
	ExportCSV    cli.ExportCSVCmd    `cmd:"" name:"export-csv" help:"Export messages as CSV."`
	ImportCSV    cli.ImportCSVCmd    `cmd:"" name:"import-csv" help:"Replace all messages from a CSV file."`
	HashPassword cli.HashPasswordCmd `cmd:"" name:"hash-password" help:"Print a bcrypt hash for ADMIN_PASSWORD_HASH."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("adventctl"),
		kong.Description("Offline tools for the advent calendar message file"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	var envFiles []string
	if CLI.EnvFile != "" {
		envFiles = append(envFiles, CLI.EnvFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if CLI.Data != "" {
		cfg.DataFile = CLI.Data
	}

	appCtx := &cli.Context{
		Config:  cfg,
		Store:   doorStore.NewJSONStore(cfg.DataFile),
		Encoder: qrcode.NewPNGEncoder(),
		Out:     os.Stdout,
		Err:     os.Stderr,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
