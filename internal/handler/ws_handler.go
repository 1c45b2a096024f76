/*
Package handler provides the HTTP handlers and routing setup for the MiniChat Server.

This file contains the HandleWebSocket function, which rate limits and
upgrades the connection, registers it as an unauthenticated client, and
starts its read and write pumps. Identity is bound later through the
authenticate event on the socket itself.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"minichat/internal/app/chat"
	"minichat/internal/pkg/errs"
	"minichat/internal/pkg/limiter"
	"minichat/internal/pkg/logx"
	"minichat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Registry, deps.Broker, deps.Verifier, conn)

		go client.WritePump()

		logx.Info("WebSocket connection established", "connection_id", client.ConnectionID())

		client.ReadPump()
	}
}
