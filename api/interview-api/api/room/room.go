// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.

package room_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	internal_ingest "github.com/hireloopai/api/interview-api/internal/ingest"
	internal_session "github.com/hireloopai/api/interview-api/internal/session"
	"github.com/hireloopai/config"
	"github.com/hireloopai/pkg/commons"
)

var captureUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type RoomApi struct {
	cfg     *config.AppConfig
	logger  commons.Logger
	manager *internal_session.Manager
}

func New(cfg *config.AppConfig, logger commons.Logger, manager *internal_session.Manager) *RoomApi {
	return &RoomApi{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
	}
}

// Capture upgrades the interview-room capture socket and pumps it until
// the client disconnects.
//
// @Router /v1/interview/:roomId/capture [get]
// @Summary Connect the interview-room capture stream
// @Success 101 "Switching Protocols"
// @Failure 400 {object} gin.H
func (rApi *RoomApi) Capture(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id is required"})
		return
	}

	conn, err := captureUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rApi.logger.Errorf("capture socket upgrade failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to upgrade to websocket"})
		return
	}

	connection := internal_ingest.NewConnection(conn, rApi.manager, rApi.logger, roomID)
	if err := connection.Run(c.Request.Context()); err != nil {
		rApi.logger.Warnf("capture connection for room %s closed: %v", roomID, err)
	}
}

// Recording reports the room's recording and upload status.
//
// @Router /v1/interview/:roomId/recording [get]
// @Summary Recording status for an interview room
// @Produce json
func (rApi *RoomApi) Recording(c *gin.Context) {
	roomID := c.Param("roomId")

	if session, ok := rApi.manager.Get(roomID); ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": session.Snapshot()})
		return
	}

	// The session may be long gone while the dashboard still polls; the
	// room context stays readable for exactly this case.
	rc, err := rApi.manager.Context(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rc})
}

// Stop is the host-driven call-end signal: finalize the recording now.
//
// @Router /v1/interview/:roomId/stop [post]
// @Summary Stop an interview room recording
// @Produce json
func (rApi *RoomApi) Stop(c *gin.Context) {
	roomID := c.Param("roomId")

	session, ok := rApi.manager.Get(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "room not found"})
		return
	}
	session.HandleCallEnded()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": session.Snapshot()})
}
