package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/school"
	"github.com/trezcool/educore/services/logger"
	"github.com/trezcool/educore/storage/database"
	"github.com/trezcool/educore/storage/database/repos"
	"github.com/trezcool/educore/storage/database/sqlexec"
	"github.com/trezcool/educore/storage/scope"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		fmt.Printf("setting up zap: %v\n", err)
		os.Exit(1)
	}
	logger := zl.Named("admin")

	// set up DB
	db, err := database.Open(conf)
	errAndDie(logger, err)
	errAndDie(logger, db.Ping())

	// every command runs under an explicit system tenant
	exec := scope.NewInterceptor(sqlexec.New(db), scope.Options{Strict: true})

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: repos.NewUserRepository(exec),
		schSvc:  school.NewService(repos.NewSchoolRepository(exec)),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	_ = zl.Sync()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}

func errAndDie(logger *zap.Logger, err error) {
	if err != nil {
		logger.Fatal("setting up database", zap.Error(err))
	}
}
