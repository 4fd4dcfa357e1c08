package recordapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"record-pubsub/internal/core/network"
	"record-pubsub/internal/keytopic"
	"record-pubsub/internal/recordrouter"
)

var (
	errKeyRequired  = errors.New("one of key or key_b64 required")
	errKeyAmbiguous = errors.New("key and key_b64 are mutually exclusive")
)

// keyInput is a record key given either as text or as standard base64 bytes.
type keyInput struct {
	Key    *string `json:"key,omitempty"`
	KeyB64 *string `json:"key_b64,omitempty"`
}

func (in keyInput) bytes() ([]byte, error) {
	switch {
	case in.Key != nil && in.KeyB64 != nil:
		return nil, errKeyAmbiguous
	case in.Key != nil:
		return []byte(*in.Key), nil
	case in.KeyB64 != nil:
		return base64.StdEncoding.DecodeString(*in.KeyB64)
	default:
		return nil, errKeyRequired
	}
}

type Server struct {
	router *recordrouter.Router
}

// NewServer builds the API. router may be nil, in which case only the
// codec routes are served.
func NewServer(router *recordrouter.Router) *Server {
	return &Server{router: router}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/record/topic", s.handleTopic)
	mux.HandleFunc("/api/record/key", s.handleKey)
	mux.HandleFunc("/api/record/base32", s.handleBase32)
	mux.HandleFunc("/api/record/publish", s.handlePublish)
	mux.HandleFunc("/api/record/stream", s.handleStream)
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req keyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key, err := req.bytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topic": keytopic.KeyToTopic(key)})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key, err := keytopic.TopicToKey(req.Topic)
	if err != nil {
		writeCodecError(w, err)
		return
	}
	resp := map[string]any{"key_b64": base64.StdEncoding.EncodeToString(key)}
	if utf8.Valid(key) {
		resp["key"] = string(key)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBase32(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req keyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	buf, err := req.bytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"base32": keytopic.EncodeBase32(buf)})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.router == nil {
		writeError(w, http.StatusServiceUnavailable, "record router unavailable")
		return
	}
	var req struct {
		keyInput
		ValueB64 string `json:"value_b64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key, err := req.bytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := base64.StdEncoding.DecodeString(req.ValueB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value_b64 must be base64")
		return
	}
	topic, err := s.router.Publish(key, value)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "topic": topic})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.router == nil {
		writeError(w, http.StatusServiceUnavailable, "record router unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	ch, cancel, err := s.router.SubscribeTopic(r.URL.Query().Get("topic"))
	if err != nil {
		writeCodecError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			b, _ := json.Marshal(rec)
			if _, err := w.Write([]byte("event: record\ndata: " + string(b) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// allowMethod answers preflight requests and rejects anything but method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == http.MethodOptions {
		writeNoContent(w)
		return false
	}
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeCodecError(w http.ResponseWriter, err error) {
	code, ok := keytopic.CodeOf(err)
	if !ok {
		if errors.Is(err, network.ErrTopicRejected) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "code": code.String()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeNoContent(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}
