package control

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/coordinator"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Server error: the method itself failed
	ErrCodeServerError = -32000
)

// Server timeouts
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 120 * time.Second
)

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// omitempty so missing fields can be reported back to the client
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data == "" {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d): %s", e.Message, e.Code, e.Data)
}

// AttrParams names an attribute and, for attr.set, its new value.
type AttrParams struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// AttrResult is returned by attr.get and attr.set.
type AttrResult struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DisplayParams drives display.set.
type DisplayParams struct {
	Off bool `json:"off"`
}

// StatusResult is returned by status.
type StatusResult struct {
	Device     string                    `json:"device"`
	Groups     []coordinator.GroupStatus `json:"groups"`
	Attributes map[string]string         `json:"attributes"`
}

// Coordinator is the part of the coordinator the server drives.
type Coordinator interface {
	SetDisplayPower(off bool) error
	Status() []coordinator.GroupStatus
}

// Server serves the control JSON-RPC endpoint and the event feed.
type Server struct {
	attrs  *Attributes
	coord  Coordinator
	feed   *Feed
	token  string
	device string

	quit     chan struct{}
	quitOnce sync.Once
}

// NewServer builds a server. An empty token disables authentication.
func NewServer(attrs *Attributes, coord Coordinator, feed *Feed, token, deviceName string) *Server {
	return &Server{
		attrs:  attrs,
		coord:  coord,
		feed:   feed,
		token:  token,
		device: deviceName,
		quit:   make(chan struct{}),
	}
}

// Handler returns the HTTP handler: "/" banner, "/rpc" and "/events".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", sendBanner)
	mux.Handle("/rpc", s.authMiddleware(http.HandlerFunc(s.handleJSONRPC)))
	mux.Handle("/events", s.authMiddleware(http.HandlerFunc(s.handleEvents)))
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}
	// Shutdown leaves hijacked websocket connections alone.
	server.RegisterOnShutdown(s.closeStreams)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", ln.Addr().String()).Info("Control server listening")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) closeStreams() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" {
			// browsers cannot set headers on a websocket handshake
			got = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}

	if req.JSONRPC != "2.0" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'")
		return
	}

	if req.ID == nil {
		sendJSONRPCError(w, nil, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required")
		return
	}

	log.WithFields(log.Fields{"id": req.ID, "method": req.Method}).Debug("Control request")

	var result interface{}
	var err error

	switch req.Method {
	case "attr.list":
		result = s.attrs.All()
	case "attr.get":
		result, err = s.handleAttrGet(req.Params)
	case "attr.set":
		result, err = s.handleAttrSet(req.Params)
	case "display.set":
		result, err = s.handleDisplaySet(req.Params)
	case "status":
		result = s.status()
	case "":
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'method' is required")
		return
	default:
		sendJSONRPCError(w, req.ID, ErrCodeMethodNotFound, "Method not found", fmt.Sprintf("Method '%s' not found", req.Method))
		return
	}

	if err != nil {
		code, message := ErrCodeServerError, "Server error"
		if isParamError(err) {
			code, message = ErrCodeInvalidParams, "Invalid params"
		}
		log.WithError(err).WithField("method", req.Method).Warn("Control request failed")
		sendJSONRPCError(w, req.ID, code, message, err.Error())
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

type paramError struct{ err error }

func (e paramError) Error() string { return e.err.Error() }
func (e paramError) Unwrap() error { return e.err }

func isParamError(err error) bool {
	var pe paramError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrUnknownAttribute) ||
		errors.Is(err, ErrReadOnly) ||
		errors.Is(err, ErrInvalidValue)
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return paramError{errors.New("params required")}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return paramError{fmt.Errorf("invalid params: %w", err)}
	}
	return nil
}

func (s *Server) handleAttrGet(raw json.RawMessage) (interface{}, error) {
	var p AttrParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	value, err := s.attrs.Get(p.Name)
	if err != nil {
		return nil, err
	}
	return AttrResult{Name: p.Name, Value: value}, nil
}

func (s *Server) handleAttrSet(raw json.RawMessage) (interface{}, error) {
	var p AttrParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if err := s.attrs.Set(p.Name, p.Value); err != nil {
		return nil, err
	}
	value, err := s.attrs.Get(p.Name)
	if err != nil {
		return nil, err
	}
	return AttrResult{Name: p.Name, Value: value}, nil
}

func (s *Server) handleDisplaySet(raw json.RawMessage) (interface{}, error) {
	var p DisplayParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if err := s.coord.SetDisplayPower(p.Off); err != nil {
		return nil, err
	}
	return okResponse, nil
}

func (s *Server) status() StatusResult {
	return StatusResult{
		Device:     s.device,
		Groups:     s.coord.Status(),
		Attributes: s.attrs.All(),
	}
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data string) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   &RPCError{Code: code, Message: message, Data: data},
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}

type wsConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	_ = wsc.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return wsc.conn.WriteJSON(v)
}

func (wsc *wsConnection) close() error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	return wsc.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     isSameOrigin,
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

// handleEvents streams bus events to a websocket client until either side
// goes away. Incoming messages are ignored.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := newUpgrader().Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// The http.Server deadlines do not apply to hijacked connections.
	_ = conn.SetReadDeadline(time.Time{})

	events, leave := s.feed.Join()
	defer leave()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				log.WithError(err).Debug("Event listener disconnected")
				return
			}
		}
	}()

	wsConn := &wsConnection{conn: conn}
	for {
		select {
		case <-closed:
			return
		case <-s.quit:
			_ = wsConn.close()
			return
		case env := <-events:
			if err := wsConn.sendJSON(env); err != nil {
				log.WithError(err).Debug("Event write failed")
				return
			}
		}
	}
}
