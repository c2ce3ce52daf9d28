package main

import (
	"bufio"
	"flag"
	"log/slog"
	"os"
	"strings"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/config"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

// Usage example on the command line:
// > DBUSER=ahmed DBPWD=secret DBHOST=localhost:3306 JWT_SECRET=unused go run main.go -file=../../scripts/database.sql
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("could not load configuration", "error", err)
		os.Exit(1)
	}
	db, err := store.Open(cfg.DSN())
	if err != nil {
		slog.Error("could not connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	filePtr := flag.String("file", "database.sql", "the sql file to execute")
	flag.Parse()

	readFile, err := os.Open(*filePtr) // nosemgrep
	if err != nil {
		slog.Error("could not open sql file", "file", *filePtr, "error", err)
		os.Exit(1)
	}
	defer readFile.Close()

	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			db.MustExec(builder.String())
			builder = strings.Builder{}
		}
	}
	slog.Info("schema applied", "file", *filePtr)
}
