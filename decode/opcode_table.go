/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package decode

// RootTable is the canonical root opcode dictionary (spec section 6: "the
// repository contains the canonical tables"). It is static configuration,
// never mutated at runtime.
//
// The set of known opcodes is deliberately partial: an undocumented opcode
// is a recoverable parser error (section 4.6), not a gap to be filled by
// guessing.
var RootTable = Table{
	// EOF: a bare terminal marker closing a command stream.
	0xD7: Label("EOF"),

	// MOVE_ABS_XY: absolute move to (X, Y) in micrometers.
	0x88: Command("MOVE_ABS_XY",
		P("X=%vum", DecInt35, PrimInt35),
		P("Y=%vum", DecInt35, PrimInt35),
	),

	// RAPID_MOVE_XY: rapid positioning move; the origin flag (bit
	// ORIGIN_HOME of the first parameter byte, see protocol.OriginHome)
	// selects head-relative vs. stored-origin-relative motion.
	0x89: Command("RAPID_MOVE_XY",
		P("Origin:%v", DecBool7, PrimBool7),
		P("X=%vum", DecInt35, PrimInt35),
		P("Y=%vum", DecInt35, PrimInt35),
	),

	// CUT_ABS_XY: laser-on absolute cut move, power and speed preset by
	// prior MIN/MAX_POWER and SPEED commands.
	0x8A: Command("CUT_ABS_XY",
		P("X=%vum", DecInt35, PrimInt35),
		P("Y=%vum", DecInt35, PrimInt35),
	),

	// 0xC6: power-limit sub-table, one entry per laser channel.
	0xC6: SubTable(Table{
		0x01: Command("MIN_POWER_1", P("Power:%f%%", DecPower, PrimUint14)),
		0x02: Command("MAX_POWER_1", P("Power:%f%%", DecPower, PrimUint14)),
		0x03: Command("MIN_POWER_2", P("Power:%f%%", DecPower, PrimUint14)),
		0x04: Command("MAX_POWER_2", P("Power:%f%%", DecPower, PrimUint14)),
	}),

	// 0xC9: motion-parameter sub-table.
	0xC9: SubTable(Table{
		0x02: Command("SPEED", P("Speed:%vmm/s", DecSpeed, PrimInt35)),
		0x04: Command("LASER_FREQUENCY", P("Freq:%vkHz", DecFrequency, PrimInt35)),
	}),

	// 0xD8: housekeeping sub-table.
	0xD8: SubTable(Table{
		0x12: Label("HOME_XY"),
		0x00: Label("START"),
		0x01: Label("STOP"),
	}),

	// 0xDA: controller memory access. Only 0x00 (GET_SETTING) is
	// documented; 0x01 would be SET_SETTING but the source exhibits no
	// captured instance of the host writing, so it is left unmodeled.
	0xDA: SubTable(Table{
		0x00: Command("GET_SETTING", Memory("Addr:%s")),
	}),

	// 0xD9: laser enable/disable toggle.
	0xD9: Command("LASER_ON_OFF", P("%s", DecOnOff, PrimBool7)),

	// 0xDB: controller identity query (cstring replies carry the card ID
	// or firmware version; the command itself names no parameters, the
	// reply is a plain cstring).
	0xDB: Command("GET_VERSION", Reply(), P("Version:%s", DecCstring, PrimCstr)),
}
