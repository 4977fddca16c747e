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

// MemoryTable is the canonical controller memory map: address (msb, lsb)
// to a human label and the reply decoder (spec section 4.8). Most
// addresses are undocumented and resolve to UnknownAddress at lookup
// time; only the handful with known semantics are listed here.
var MemoryTable = map[byte]map[byte]MTEntry{
	0x00: {
		0x26: {Label: "Axis Range 1", Reply: ParamSpec{Format: "%vum", Decoder: DecInt35, Primitive: PrimInt35}},
		0x27: {Label: "Axis Range 2", Reply: ParamSpec{Format: "%vum", Decoder: DecInt35, Primitive: PrimInt35}},
		0x2B: {Label: "Card ID", Reply: ParamSpec{Format: "%s", Decoder: DecCstring, Primitive: PrimCstr}},
		0x2C: {Label: "Firmware Version", Reply: ParamSpec{Format: "%s", Decoder: DecCstring, Primitive: PrimCstr}},
	},
}
