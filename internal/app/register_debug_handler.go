// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
	"github.com/relabs-tech/lsm6dsv320x/internal/sensor"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterDebug serves the WebSocket register inspection tool over one
// driver instance.
type RegisterDebug struct {
	sensor *sensor.Sensor
}

// NewRegisterDebug returns a debug surface over s.
func NewRegisterDebug(s *sensor.Sensor) *RegisterDebug {
	return &RegisterDebug{sensor: s}
}

// registerDebugSession holds WebSocket connection state for one client.
type registerDebugSession struct {
	conn   *websocket.Conn
	sensor *sensor.Sensor
}

// Response types
type RegisterResponse struct {
	Type        string            `json:"type"` // "register_data", "register_map", "decoded", "error"
	Space       string            `json:"space,omitempty"`
	Address     string            `json:"addr,omitempty"`
	Value       string            `json:"value,omitempty"`
	Registers   map[string]string `json:"registers,omitempty"` // for bulk read
	Fields      map[string]string `json:"fields,omitempty"`    // for decoded read
	Timestamp   string            `json:"timestamp,omitempty"`
	Message     string            `json:"message,omitempty"`
	RegisterMap []RegisterInfo    `json:"register_map,omitempty"`
}

type RegisterInfo struct {
	Address string      `json:"address"`
	Name    string      `json:"name"`
	Size    int         `json:"size"`
	Fields  []FieldInfo `json:"fields,omitempty"`
}

type FieldInfo struct {
	Name    string `json:"name"`
	Bits    uint   `json:"bits"`
	Access  string `json:"access"` // "RO" or "RW"
	Default string `json:"default,omitempty"`
	Values  string `json:"values,omitempty"`
}

// HandleWS handles the WebSocket connection for register debugging.
func (d *RegisterDebug) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &registerDebugSession{conn: conn, sensor: d.sensor}

	// Send register map on connection
	if err := session.sendRegisterMap(); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	// Message loop
	for {
		var rawMsg map[string]interface{}
		err := conn.ReadJSON(&rawMsg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			break
		}

		action, ok := rawMsg["action"].(string)
		if !ok {
			session.sendError("missing or invalid action field")
			continue
		}

		switch action {
		case "get_map":
			session.sendRegisterMap()
		case "read":
			session.handleRead(rawMsg)
		case "read_all":
			session.handleReadAll()
		case "write":
			session.handleWrite(rawMsg)
		case "decode":
			session.handleDecode(rawMsg)
		default:
			session.sendError(fmt.Sprintf("unknown action: %s", action))
		}
	}
}

func parseAddr(rawMsg map[string]interface{}) (uint8, error) {
	addr, _ := rawMsg["addr"].(string)
	if addr == "" {
		return 0, fmt.Errorf("missing addr field")
	}
	var addrByte byte
	if _, err := fmt.Sscanf(addr, "0x%X", &addrByte); err != nil {
		return 0, fmt.Errorf("invalid address format: %s", addr)
	}
	return addrByte, nil
}

func rawHex(raw []byte) string {
	// Registers are little-endian on the wire; show the assembled value.
	var word uint16
	for i := len(raw) - 1; i >= 0; i-- {
		word = word<<8 | uint16(raw[i])
	}
	return fmt.Sprintf("0x%0*X", len(raw)*2, word)
}

func (s *registerDebugSession) handleRead(rawMsg map[string]interface{}) {
	addr, err := parseAddr(rawMsg)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	raw, err := s.sensor.RawRead(addr)
	if err != nil {
		s.sendError(fmt.Sprintf("read error: %v", err))
		return
	}

	s.conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Space:     s.sensor.Space().String(),
		Address:   fmt.Sprintf("0x%02X", addr),
		Value:     rawHex(raw),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *registerDebugSession) handleReadAll() {
	regs := make(map[string]string)
	for _, schema := range regmap.Registers(s.sensor.Space()) {
		raw, err := s.sensor.RawRead(schema.Addr)
		if err != nil {
			s.sendError(fmt.Sprintf("read all error at 0x%02X: %v", schema.Addr, err))
			return
		}
		regs[fmt.Sprintf("0x%02X", schema.Addr)] = rawHex(raw)
	}

	s.conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Space:     s.sensor.Space().String(),
		Registers: regs,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *registerDebugSession) handleWrite(rawMsg map[string]interface{}) {
	addr, err := parseAddr(rawMsg)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	valueStr, _ := rawMsg["value"].(string)
	if valueStr == "" {
		s.sendError("missing value field")
		return
	}
	var word uint16
	if _, err := fmt.Sscanf(valueStr, "0x%X", &word); err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", valueStr))
		return
	}

	schema, ok := regmap.Lookup(s.sensor.Space(), addr)
	if !ok {
		s.sendError(fmt.Sprintf("no register at 0x%02X", addr))
		return
	}
	data := make([]byte, schema.Size)
	data[0] = byte(word)
	if schema.Size == 2 {
		data[1] = byte(word >> 8)
	}

	if err := s.sensor.RawWrite(addr, data); err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}

	s.conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Space:     s.sensor.Space().String(),
		Address:   fmt.Sprintf("0x%02X", addr),
		Value:     valueStr,
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "write successful",
	})
}

func (s *registerDebugSession) handleDecode(rawMsg map[string]interface{}) {
	addr, err := parseAddr(rawMsg)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	decoded, err := s.sensor.Read(addr)
	if err != nil {
		s.sendError(fmt.Sprintf("decode error: %v", err))
		return
	}

	fields := make(map[string]string, len(decoded))
	for name, v := range decoded {
		fields[name] = fmt.Sprintf("0x%X", v)
	}

	s.conn.WriteJSON(RegisterResponse{
		Type:      "decoded",
		Space:     s.sensor.Space().String(),
		Address:   fmt.Sprintf("0x%02X", addr),
		Fields:    fields,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *registerDebugSession) sendRegisterMap() error {
	table := regmap.Registers(s.sensor.Space())
	mapped := make([]RegisterInfo, len(table))
	for i, schema := range table {
		info := RegisterInfo{
			Address: fmt.Sprintf("0x%02X", schema.Addr),
			Name:    schema.Name,
			Size:    schema.Size,
		}
		for _, f := range schema.Fields {
			fi := FieldInfo{Name: f.Name, Bits: f.Bits, Access: "RW"}
			if f.Access == regmap.ReadOnly {
				fi.Access = "RO"
			}
			if f.HasDefault {
				fi.Default = fmt.Sprintf("0x%02X", f.Default)
			}
			if len(f.Enum) > 0 {
				values := make([]string, len(f.Enum))
				for j, e := range f.Enum {
					values[j] = fmt.Sprintf("%d=%s", e.Code, e.Name)
				}
				fi.Values = strings.Join(values, ", ")
			}
			info.Fields = append(info.Fields, fi)
		}
		mapped[i] = info
	}

	return s.conn.WriteJSON(RegisterResponse{
		Type:        "register_map",
		Space:       s.sensor.Space().String(),
		RegisterMap: mapped,
	})
}

func (s *registerDebugSession) sendError(message string) {
	s.conn.WriteJSON(RegisterResponse{
		Type:    "error",
		Message: message,
	})
}
