// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package interview_routers

import (
	"github.com/gin-gonic/gin"
	room_api "github.com/hireloopai/api/interview-api/api/room"
	internal_session "github.com/hireloopai/api/interview-api/internal/session"
	"github.com/hireloopai/config"
	"github.com/hireloopai/pkg/commons"
)

func InterviewRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, manager *internal_session.Manager) {
	logger.Info("Interview room routes added to engine.")
	apiv1 := engine.Group("/v1/interview")
	rApi := room_api.New(cfg, logger, manager)
	{
		apiv1.GET("/:roomId/capture", rApi.Capture)
		apiv1.GET("/:roomId/recording", rApi.Recording)
		apiv1.POST("/:roomId/stop", rApi.Stop)
	}
}
