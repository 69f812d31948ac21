package logsvc

import (
	"go.uber.org/zap"

	"github.com/trezcool/educore/core"
)

// NewZapLogger returns a development logger in debug mode and a JSON production logger otherwise.
func NewZapLogger(conf *core.Config) (*zap.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return zl.With(zap.String("app", conf.AppName), zap.String("env", conf.Env), zap.String("build", conf.Build)), nil
}
