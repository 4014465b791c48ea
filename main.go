package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"cyrsh/config"
	"cyrsh/logging"
	"cyrsh/shell"
	"cyrsh/translit"
)

const version = "1.2.0"

func main() {
	cmd := &cli.Command{
		Name:    "cyrsh",
		Usage:   "a transliterating wrapper around your shell",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "lang",
				Aliases: []string{"l"},
				Usage:   "transliteration language (ru, uk)",
			},
			&cli.StringFlag{
				Name:    "shell",
				Aliases: []string{"s"},
				Usage:   "shell binary to wrap",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "cyrsh: %v\n", err)
		logging.LogError(err)
		os.Exit(255)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfgPath := cmd.String("config")
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		logging.SetLogFile(cfg.LogFile)
	}

	langCode := cmd.String("lang")
	if langCode == "" {
		langCode = cfg.Lang
	}
	lang, err := translit.ParseLanguage(langCode)
	if err != nil {
		return err
	}
	tr, err := translit.New(lang)
	if err != nil {
		return err
	}

	execPath, args, err := config.DetermineShell(cmd.String("shell"), cfg)
	if err != nil {
		return err
	}

	sh, err := shell.Start(execPath, args...)
	if err != nil {
		return err
	}

	session := NewSession(cfg, tr, sh)

	if cmd.Args().Len() > 0 {
		os.Exit(session.RunOnce(strings.Join(cmd.Args().Slice(), " ")))
	}

	code, err := session.Run()
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}
