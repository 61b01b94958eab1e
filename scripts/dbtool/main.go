// Command dbtool backs up and restores the crewboard database.
//
// Usage:
//
//	dbtool backup [-config path]
//	dbtool restore [-config path]
//
// Backups are plain file copies written next to the database as
// <database_path>.bak. Stop the server before restoring; the copy does not
// coordinate with live connections.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/garnizeh/crewboard/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: dbtool [-config path] backup|restore")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbtool: config error: %v\n", err)
		os.Exit(1)
	}

	live := cfg.DatabasePath
	backup := live + ".bak"

	switch flag.Arg(0) {
	case "backup":
		if err := copyFile(live, backup); err != nil {
			fmt.Fprintf(os.Stderr, "dbtool: backup error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("crewboard database backed up to %s\n", backup)
	case "restore":
		if err := copyFile(backup, live); err != nil {
			fmt.Fprintf(os.Stderr, "dbtool: restore error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("crewboard database restored from %s\n", backup)
	default:
		fmt.Fprintf(os.Stderr, "dbtool: unknown command %q\n", flag.Arg(0))
		os.Exit(2)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
