package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"delivtrack/internal/domain"
	"delivtrack/internal/hub"
	"delivtrack/internal/services"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// WSHandler streams route snapshots to the client and accepts driver_loc
// GPS fixes from it.
type WSHandler struct {
	Hub     *hub.Hub
	Service *services.RouteService
}

type wsInbound struct {
	Type    string   `json:"type"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Speed   *float64 `json:"speed,omitempty"`
	Heading *float64 `json:"heading,omitempty"`
	AtMs    int64    `json:"at_ms,omitempty"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("websocket accept failed: %v", err)
		return
	}
	conn.SetReadLimit(1 << 16)

	client := hub.NewClient(uuid.NewString(), 32)
	h.Hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.Hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		mt, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				log.Printf("websocket read error: client_id=%s err=%v", client.ID, err)
			}
			return
		}
		if mt != websocket.MessageText {
			continue
		}

		var m wsInbound
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}

		switch m.Type {
		case hub.MessageDriverLoc:
			u := services.DriverUpdate{
				Coordinates: domain.Coordinates{Lat: m.Lat, Lng: m.Lng},
				Heading:     m.Heading,
				SpeedMps:    m.Speed,
			}
			if m.AtMs > 0 {
				u.At = time.UnixMilli(m.AtMs)
			}
			if _, err := h.Service.UpdateDriverLocation(ctx, u); err != nil {
				log.Printf("websocket driver_loc rejected: client_id=%s err=%v", client.ID, err)
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
