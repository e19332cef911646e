// Package vm implements the filament append and updating virtual machines.
//
// This package contains:
//   - Program encoding, constant pool, disassembler and CBOR image format
//   - The append interpreter, which builds DOM through an ElementBuilder
//   - Updating opcodes recorded during append, and the UpdatingVM that
//     replays them on rerender
//   - Deferred element operations and the modifier lifecycle
package vm
