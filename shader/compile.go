package shader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// ErrBadSPIRV is returned when the compiler output is not a SPIR-V module.
var ErrBadSPIRV = errors.New("shader: compiler produced invalid SPIR-V")

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if len(spirvBytes) < 4 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadSPIRV, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	if words[0] != SPIRVMagic {
		return nil, fmt.Errorf("%w: magic %#08x", ErrBadSPIRV, words[0])
	}
	return words, nil
}

// Validate reports whether wgsl compiles.
func Validate(wgsl string) error {
	_, err := CompileSPIRV(wgsl)
	return err
}
