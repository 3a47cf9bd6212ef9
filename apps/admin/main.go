package main

import (
	"log"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	logsvc "github.com/trezcool/shule/services/logger"
	filekv "github.com/trezcool/shule/storage/kv/file"
	pgkv "github.com/trezcool/shule/storage/kv/pg"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up storage: Postgres when an app user is configured, files otherwise
	var storage core.Storage
	if conf.Database.User != "" {
		pg, err := pgkv.Open(conf)
		errAndDie(err)
		defer pg.Close()
		storage = pg
	} else {
		storage, err = filekv.NewStorage(conf.DataDir)
		errAndDie(err)
	}

	// start CLI
	cli := commandLine{
		store: school.NewStore(conf, storage, logsvc.NewStdLogger(logger)),
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
