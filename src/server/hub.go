package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main hub loop. It owns the clients map: every mutation
// happens here, handlers only read the atomic counter.
func (s *Server) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int64(len(s.clients)))

			// Send the full current state on connect
			initial := s.initialState(nil)
			select {
			case client.send <- initial:
			default:
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.clientCount.Store(int64(len(s.clients)))
			}

		case update := <-s.broadcast:
			s.mergeState(update)

			for client := range s.clients {
				filtered := filterUpdate(update, client.subscribed())
				if filtered == nil {
					continue
				}
				select {
				case client.send <- filtered:
				default:
					// Client too slow, disconnect so the hub never blocks
					delete(s.clients, client)
					close(client.send)
					s.clientCount.Store(int64(len(s.clients)))
				}
			}

		case <-s.done:
			return
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateState merges a partial update into the served state without waking
// WebSocket clients. Used for the initial fill before the server is up.
func (s *Server) UpdateState(update *models.MLatestData) {
	s.mergeState(update)
}

// -----------------------------------------------------------------------------

// Broadcast queues a partial update for the hub. Dropping on a full queue
// protects the pipeline; the next update carries fresher state anyway.
func (s *Server) Broadcast(update *models.MLatestData) {
	select {
	case s.broadcast <- update:
	default:
		s.Logger.Warning("Broadcast queue full, dropping update")
	}
}

// -----------------------------------------------------------------------------
// State Handling
// -----------------------------------------------------------------------------

// mergeState folds a partial update into latestState. Family pointers only
// move when the update carries that family; anomalies accumulate in a
// bounded ring.
func (s *Server) mergeState(update *models.MLatestData) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if update.Orders != nil {
		s.latestState.Orders = update.Orders
	}
	if update.Payments != nil {
		s.latestState.Payments = update.Payments
	}
	if update.Inventory != nil {
		s.latestState.Inventory = update.Inventory
	}
	if update.Baselines != nil {
		s.latestState.Baselines = update.Baselines
	}
	if update.Timestamp != 0 {
		s.latestState.Timestamp = update.Timestamp
	}
	s.latestState.Pipeline = update.Pipeline
	s.latestState.Type = "UPDATE"

	if len(update.Anomalies) > 0 {
		s.anomalyRing = append(s.anomalyRing, update.Anomalies...)
		if overflow := len(s.anomalyRing) - anomalyRingSize; overflow > 0 {
			s.anomalyRing = s.anomalyRing[overflow:]
		}
	}
}

// -----------------------------------------------------------------------------

// initialState builds the INITIAL payload for a client, filtered to its
// subscribed domains. nil or empty means everything.
func (s *Server) initialState(domains map[string]bool) *models.MLatestData {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	state := &models.MLatestData{
		Type:      "INITIAL",
		Orders:    s.latestState.Orders,
		Payments:  s.latestState.Payments,
		Inventory: s.latestState.Inventory,
		Baselines: s.latestState.Baselines,
		Timestamp: s.latestState.Timestamp,
		Pipeline:  s.latestState.Pipeline,
	}

	// Newest slice of the anomaly ring
	n := len(s.anomalyRing)
	if n > 50 {
		n = 50
	}
	if n > 0 {
		state.Anomalies = append(state.Anomalies, s.anomalyRing[len(s.anomalyRing)-n:]...)
	}

	if len(domains) == 0 {
		return state
	}
	if filtered := filterUpdate(state, domains); filtered != nil {
		filtered.Type = "INITIAL"
		return filtered
	}
	state.Orders, state.Payments, state.Inventory = nil, nil, nil
	state.Anomalies, state.Baselines = nil, nil
	return state
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to keep the hub loop from blocking
		send: make(chan *models.MLatestData, s.Config.Limits.WSSendBuffer),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage processes subscribe commands. A subscribe narrows the
// client to the named domains and answers with a filtered snapshot.
func (s *Server) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	domains := make(map[string]bool, len(cmd.Domains))
	for _, d := range cmd.Domains {
		if validDomain(d) {
			domains[d] = true
		} else {
			s.Logger.Warning("Ignoring unknown domain in subscribe: %s", d)
		}
	}
	client.setSubscription(domains)

	response := s.initialState(domains)
	select {
	case client.send <- response:
	default:
		// Client buffer full, the next broadcast will catch it up
	}
}

// -----------------------------------------------------------------------------

func validDomain(domain string) bool {
	for _, d := range models.Domains() {
		if d == domain {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// filterUpdate narrows an update to the subscribed domains. Returns nil when
// nothing in the update concerns them. Empty subscription means everything.
func filterUpdate(update *models.MLatestData, domains map[string]bool) *models.MLatestData {
	if len(domains) == 0 {
		return update
	}

	filtered := &models.MLatestData{
		Type:      update.Type,
		Timestamp: update.Timestamp,
		Pipeline:  update.Pipeline,
	}

	if domains[models.DomainOrders] {
		filtered.Orders = update.Orders
	}
	if domains[models.DomainPayments] {
		filtered.Payments = update.Payments
	}
	if domains[models.DomainInventory] {
		filtered.Inventory = update.Inventory
	}

	for _, a := range update.Anomalies {
		if domains[a.Domain] {
			filtered.Anomalies = append(filtered.Anomalies, a)
		}
	}

	if update.Baselines != nil {
		baselines := make(map[string][]models.MBaselineStats)
		for domain, stats := range update.Baselines {
			if domains[domain] {
				baselines[domain] = stats
			}
		}
		if len(baselines) > 0 {
			filtered.Baselines = baselines
		}
	}

	if filtered.Orders == nil && filtered.Payments == nil && filtered.Inventory == nil &&
		len(filtered.Anomalies) == 0 && filtered.Baselines == nil {
		return nil
	}
	return filtered
}
