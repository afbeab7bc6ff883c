// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package main

import (
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	internal_session "github.com/hireloopai/api/interview-api/internal/session"
	interview_routers "github.com/hireloopai/api/interview-api/router"
	"github.com/hireloopai/config"
	"github.com/hireloopai/pkg/commons"
	"github.com/hireloopai/pkg/utils"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		panic(fmt.Errorf("unable to initialize application config %w", err))
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		panic(fmt.Errorf("unable to read application config %w", err))
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		panic(fmt.Errorf("unable to build application logger %w", err))
	}

	if utils.FromEnvironmentStr(os.Getenv("ENVIRONMENT")).IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	engine.Use(cors.New(corsCfg))

	store := internal_session.NewMemoryStore()
	manager := internal_session.NewManager(cfg, logger, store)

	interview_routers.HealthCheckRoutes(cfg, engine, logger)
	interview_routers.InterviewRoutes(cfg, engine, logger, manager)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Infof("starting %s v%s on %s", cfg.Name, cfg.Version, addr)
	if err := engine.Run(addr); err != nil {
		logger.Fatalf("interview api stopped %v", err)
	}
}
