package ioc

import (
	"context"
	"log"

	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"

	"github.com/edplatform/judge_engine/config"
	"github.com/edplatform/judge_engine/executor"
	"github.com/edplatform/judge_engine/executor/lang"
	"github.com/edplatform/judge_engine/executor/limits"
	"github.com/edplatform/judge_engine/executor/security"
	"github.com/edplatform/judge_engine/executor/service"
)

func InitJudgeConfig() config.JudgeConfig {
	var cfg config.JudgeConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal judge config fail, err: %v", err)
	}
	return cfg
}

func InitRegistry(cfg config.JudgeConfig) *lang.Registry {
	extra := make([]lang.LanguageSpec, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		extra = append(extra, lang.LanguageSpec{
			ID:             l.ID,
			Extension:      l.Extension,
			SourceFileName: l.SourceFileName,
			CompileCommand: l.CompileCommand,
			RunCommand:     l.RunCommand,
			Image:          l.Image,
			Interpreted:    l.Interpreted,
		})
	}
	return lang.NewRegistry(extra...)
}

func InitResolver(cfg config.JudgeConfig) *limits.Resolver {
	return limits.NewResolver(limits.Config{
		DefaultTimeLimitSeconds:      cfg.DefaultTimeLimitSeconds,
		DefaultMemoryLimit:           cfg.DefaultMemoryLimit,
		DefaultCompileTimeoutSeconds: cfg.DefaultCompileTimeoutSeconds,
		MaxSourceSizeBytes:           cfg.MaxSourceSizeBytes,
		MaxOutputSizeBytes:           cfg.MaxOutputSizeBytes,
		TimeLimitOverrides:           cfg.TimeLimitOverrides,
		MemoryLimitOverrides:         cfg.MemoryLimitOverrides,
	})
}

func InitValidator(resolver *limits.Resolver) *security.Validator {
	return security.NewValidator(resolver.MaxSourceSize())
}

// InitJudger selects the execution backend. With sandboxing required, an
// unreachable container runtime is fatal here: better to fail startup
// than to misreport infrastructure problems as code failures later.
func InitJudger(l loggerv2.Logger, cfg config.JudgeConfig, registry *lang.Registry, resolver *limits.Resolver, validator *security.Validator) executor.Judger {
	var exec service.Executor
	if cfg.RequireSandbox {
		docker, err := service.NewDockerExecutor(context.Background(), l, registry, cfg.ImageBuildRoot, resolver.MaxOutputSize())
		if err != nil {
			log.Panicf("init sandbox executor fail, err: %v", err)
		}
		exec = docker
	} else {
		proc := service.NewProcessExecutor(l, registry, resolver.MaxOutputSize())
		proc.LogRequirements(context.Background())
		exec = proc
	}
	return executor.NewCodeJudger(l, exec, registry, resolver, validator)
}
