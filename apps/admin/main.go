package main

import (
	"log"
	"os"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/storage/database"
	sqlxrepos "github.com/nkashama/bweni/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	sdb, err := database.Open(conf)
	errAndDie(err)
	defer sdb.Close()
	errAndDie(sdb.Ping())

	// start CLI
	cli := commandLine{
		db:      sdb,
		usrRepo: sqlxrepos.NewUserRepository(database.NewDB(sdb)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
