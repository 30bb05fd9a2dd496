package handlers

import (
	"net/http"

	"tradeledger/src/realtime"
	"tradeledger/src/utils"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamAccount upgrades to a websocket that receives the portfolio summary
// and every transaction of the account committed after it subscribed. A
// transaction committed while the summary is built may arrive before it.
func (h *Handler) StreamAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	ctx, cancel := h.context(r)
	_, err := h.Controller.Accounts.GetAccount(ctx, accountID)
	cancel()
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status
		return
	}
	logger := utils.LoggerFromContext(r.Context()).WithField("account_id", accountID)

	h.Hub.AddClient(accountID, conn)
	defer h.Hub.RemoveClient(accountID, conn)

	ctx, cancel = h.context(r)
	summary, err := h.Controller.Reports.GetPortfolioSummary(ctx, accountID)
	cancel()
	if err != nil {
		logger.WithError(err).Warn("Failed to build initial summary")
		return
	}
	if err := h.Hub.Send(accountID, conn, realtime.Message("summary", summary)); err != nil {
		logger.WithError(err).Warn("Failed to send initial summary")
		return
	}
	logger.Info("Realtime subscriber connected")

	// drain until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	logger.Info("Realtime subscriber disconnected")
}
