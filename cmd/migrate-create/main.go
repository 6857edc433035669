package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate-create: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var name, dir string
	flagSet := pflag.NewFlagSet("migrate-create", pflag.ContinueOnError)
	flagSet.StringVarP(&name, "name", "n", "", "migration name")
	flagSet.StringVar(&dir, "dir", filepath.Join("db", "migrations"), "migrations directory")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	if strings.ContainsAny(name, " ") {
		return fmt.Errorf("migration name must not contain spaces")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, name)
	upPath := filepath.Join(dir, base+".up.sql")
	downPath := filepath.Join(dir, base+".down.sql")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create migrations dir: %w", err)
	}
	if err := writeFile(upPath, "-- up migration\n"); err != nil {
		return fmt.Errorf("create up migration: %w", err)
	}
	if err := writeFile(downPath, "-- down migration\n"); err != nil {
		return fmt.Errorf("create down migration: %w", err)
	}

	fmt.Printf("created %s and %s\n", upPath, downPath)
	return nil
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
