package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/deepblue-labs/collab-server/internal/core"
)

// RoomMemberResponse is one occupancy entry.
type RoomMemberResponse struct {
	UserID       string         `json:"userId"`
	ConnectionID string         `json:"connectionId"`
	LastSeen     int64          `json:"lastSeen,omitempty"`
	Cursor       *CursorPayload `json:"cursor,omitempty"`
}

// CursorPayload mirrors a stored cursor position.
type CursorPayload struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// OccupancyResponse is the room presence snapshot.
type OccupancyResponse struct {
	RoomID  string               `json:"roomId"`
	Members []RoomMemberResponse `json:"members"`
}

// StatsResponse summarizes coordinator state.
type StatsResponse struct {
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
	Discarded   uint64 `json:"discardedEvents"`
	Shed        uint64 `json:"shedDeliveries"`
}

func occupancyHandler(hub *core.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("room")

		members := make([]RoomMemberResponse, 0)
		for _, m := range hub.Occupancy(c.Request.Context(), roomID) {
			entry := RoomMemberResponse{
				UserID:       m.UserID,
				ConnectionID: m.ConnectionID,
				LastSeen:     m.LastSeen,
			}
			if m.Cursor != nil {
				entry.Cursor = &CursorPayload{Line: m.Cursor.Line, Column: m.Cursor.Column}
			}
			members = append(members, entry)
		}

		c.JSON(stdhttp.StatusOK, OccupancyResponse{RoomID: roomID, Members: members})
	}
}

func statsHandler(hub *core.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := hub.CurrentStats()
		c.JSON(stdhttp.StatusOK, StatsResponse{
			Rooms:       stats.Rooms,
			Connections: stats.Connections,
			Discarded:   stats.Discarded,
			Shed:        stats.Shed,
		})
	}
}
