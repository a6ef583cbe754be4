// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regmap

import "fmt"

// Space identifies which host interface an address belongs to. The
// primary (UI) and auxiliary (IF2/OIS) interfaces address overlapping
// physical storage: the OIS control bank 0x6F-0x72 is one set of cells
// reachable from both spaces.
type Space int

const (
	Primary Space = iota
	Auxiliary
)

func (s Space) String() string {
	switch s {
	case Primary:
		return "primary"
	case Auxiliary:
		return "auxiliary"
	}
	return fmt.Sprintf("space(%d)", int(s))
}

// WhoAmI is the fixed identification byte of the LSM6DSV320X, visible
// at 0x0F through both interfaces.
const WhoAmI = 0x73

// Primary (UI) interface addresses.
const (
	UIWhoAmI        uint8 = 0x0F
	UIHandshakeCtrl uint8 = 0x64
	UIIntOIS        uint8 = 0x6F
	UICtrl1OIS      uint8 = 0x70
	UICtrl2OIS      uint8 = 0x71
	UICtrl3OIS      uint8 = 0x72
)

// Auxiliary (IF2) interface addresses.
const (
	IF2WhoAmI        uint8 = 0x0F
	IF2StatusRegOIS  uint8 = 0x1E
	IF2OutTemp       uint8 = 0x20
	IF2OutXGOIS      uint8 = 0x22
	IF2OutYGOIS      uint8 = 0x24
	IF2OutZGOIS      uint8 = 0x26
	IF2OutXAOIS      uint8 = 0x28
	IF2OutYAOIS      uint8 = 0x2A
	IF2OutZAOIS      uint8 = 0x2C
	IF2HandshakeCtrl uint8 = 0x6E
	IF2IntOIS        uint8 = 0x6F
	IF2Ctrl1OIS      uint8 = 0x70
	IF2Ctrl2OIS      uint8 = 0x71
	IF2Ctrl3OIS      uint8 = 0x72
)

// Enumerated field code tables. Codes with no entry are reserved.
var (
	gyroFullScaleEnum = []Enum{
		{Code: 1, Name: "±250 dps"},
		{Code: 2, Name: "±500 dps"},
		{Code: 3, Name: "±1000 dps"},
		{Code: 4, Name: "±2000 dps"},
	}
	accelFullScaleEnum = []Enum{
		{Code: 0, Name: "±2 g"},
		{Code: 1, Name: "±4 g"},
		{Code: 2, Name: "±8 g"},
		{Code: 3, Name: "±16 g"},
	}
	selfTestEnum = []Enum{
		{Code: 0, Name: "disabled"},
		{Code: 1, Name: "positive"},
		{Code: 2, Name: "negative"},
	}
)

// The OIS control bank 0x6F-0x72 has the same field layout through both
// interfaces; these rows are shared between the two tables.
var (
	intOISFields = []Field{
		{Name: "st_xl_ois", Bits: 2, Enum: selfTestEnum},
		{Name: "st_g_ois", Bits: 2, Enum: selfTestEnum},
		{Name: "st_ois_clampdis", Bits: 1},
		{Name: "not_used0", Bits: 1, Access: ReadOnly},
		{Name: "drdy_mask_ois", Bits: 1},
		{Name: "int2_drdy_ois", Bits: 1},
	}
	ctrl1OISFields = []Field{
		{Name: "spi_read_en", Bits: 1},
		{Name: "ois_g_en", Bits: 1},
		{Name: "ois_xl_en", Bits: 1},
		{Name: "not_used0", Bits: 2, Access: ReadOnly},
		{Name: "sim_ois", Bits: 1},
		{Name: "not_used1", Bits: 2, Access: ReadOnly},
	}
	ctrl2OISFields = []Field{
		{Name: "fs_g_ois", Bits: 3, Enum: gyroFullScaleEnum},
		{Name: "lpf1_g_ois_bw", Bits: 2},
		{Name: "not_used0", Bits: 3, Access: ReadOnly},
	}
	ctrl3OISFields = []Field{
		{Name: "fs_xl_ois", Bits: 2, Enum: accelFullScaleEnum},
		{Name: "not_used0", Bits: 1, Access: ReadOnly},
		{Name: "lpf_xl_ois_bw", Bits: 3},
		{Name: "not_used1", Bits: 2, Access: ReadOnly},
	}
	handshakeFields = []Field{
		{Name: "shared_ack", Bits: 1},
		{Name: "shared_req", Bits: 1},
		{Name: "not_used0", Bits: 6, Access: ReadOnly},
	}
)

func axisOut(addr uint8, name string) Schema {
	return Schema{Addr: addr, Name: name, Size: 2, Fields: []Field{
		{Name: "out", Bits: 16, Access: ReadOnly},
	}}
}

// primaryRegisters is the UI-interface register table, restricted to the
// registers this core programs: identification, handshake and the shared
// OIS control bank.
var primaryRegisters = []Schema{
	{Addr: UIWhoAmI, Name: "WHO_AM_I", Size: 1, Fields: []Field{
		{Name: "id", Bits: 8, Access: ReadOnly, HasDefault: true, Default: WhoAmI},
	}},
	{Addr: UIHandshakeCtrl, Name: "UI_HANDSHAKE_CTRL", Size: 1, Fields: handshakeFields},
	{Addr: UIIntOIS, Name: "UI_INT_OIS", Size: 1, Fields: intOISFields},
	{Addr: UICtrl1OIS, Name: "UI_CTRL1_OIS", Size: 1, Fields: ctrl1OISFields},
	{Addr: UICtrl2OIS, Name: "UI_CTRL2_OIS", Size: 1, Fields: ctrl2OISFields},
	{Addr: UICtrl3OIS, Name: "UI_CTRL3_OIS", Size: 1, Fields: ctrl3OISFields},
}

// auxiliaryRegisters is the complete IF2-interface register table.
var auxiliaryRegisters = []Schema{
	{Addr: IF2WhoAmI, Name: "IF2_WHO_AM_I", Size: 1, Fields: []Field{
		{Name: "id", Bits: 8, Access: ReadOnly, HasDefault: true, Default: WhoAmI},
	}},
	{Addr: IF2StatusRegOIS, Name: "IF2_STATUS_REG_OIS", Size: 1, Fields: []Field{
		{Name: "xlda", Bits: 1, Access: ReadOnly},
		{Name: "gda", Bits: 1, Access: ReadOnly},
		{Name: "gyro_settling", Bits: 1, Access: ReadOnly},
		{Name: "not_used0", Bits: 5, Access: ReadOnly},
	}},
	{Addr: IF2OutTemp, Name: "IF2_OUT_TEMP", Size: 2, Fields: []Field{
		{Name: "temp", Bits: 16, Access: ReadOnly},
	}},
	axisOut(IF2OutXGOIS, "IF2_OUTX_G_OIS"),
	axisOut(IF2OutYGOIS, "IF2_OUTY_G_OIS"),
	axisOut(IF2OutZGOIS, "IF2_OUTZ_G_OIS"),
	axisOut(IF2OutXAOIS, "IF2_OUTX_A_OIS"),
	axisOut(IF2OutYAOIS, "IF2_OUTY_A_OIS"),
	axisOut(IF2OutZAOIS, "IF2_OUTZ_A_OIS"),
	{Addr: IF2HandshakeCtrl, Name: "IF2_HANDSHAKE_CTRL", Size: 1, Fields: handshakeFields},
	{Addr: IF2IntOIS, Name: "IF2_INT_OIS", Size: 1, Fields: intOISFields},
	{Addr: IF2Ctrl1OIS, Name: "IF2_CTRL1_OIS", Size: 1, Fields: ctrl1OISFields},
	{Addr: IF2Ctrl2OIS, Name: "IF2_CTRL2_OIS", Size: 1, Fields: ctrl2OISFields},
	{Addr: IF2Ctrl3OIS, Name: "IF2_CTRL3_OIS", Size: 1, Fields: ctrl3OISFields},
}

func init() {
	// Table bugs are programmer errors; fail at load, not mid-transaction.
	if err := Validate(primaryRegisters); err != nil {
		panic("regmap: primary table: " + err.Error())
	}
	if err := Validate(auxiliaryRegisters); err != nil {
		panic("regmap: auxiliary table: " + err.Error())
	}
}

// Registers returns the schema table for one interface space.
func Registers(space Space) []Schema {
	if space == Auxiliary {
		return auxiliaryRegisters
	}
	return primaryRegisters
}

// Lookup finds the schema registered at addr in the given space.
func Lookup(space Space, addr uint8) (Schema, bool) {
	for _, s := range Registers(space) {
		if s.Addr == addr {
			return s, true
		}
	}
	return Schema{}, false
}

// ByName finds a schema by register name in the given space.
func ByName(space Space, name string) (Schema, bool) {
	for _, s := range Registers(space) {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}
