package memacc

import "fmt"

// BaseAccessor holds the inclusive physical address range covered by an accessor.
type BaseAccessor struct {
	StartAddress uint64
	EndAddress   uint64
}

// AddrInRange tests if an address is in the inclusive range for this accessor.
func (b *BaseAccessor) AddrInRange(address uint64) bool {
	return address >= b.StartAddress && address <= b.EndAddress
}

// BytesInRange returns the number of bytes available from address, up to reqBytes.
func (b *BaseAccessor) BytesInRange(address uint64, reqBytes uint32) uint32 {
	if !b.AddrInRange(address) {
		return 0
	}
	avail := b.EndAddress - address + 1
	if avail > uint64(reqBytes) {
		return reqBytes
	}
	return uint32(avail)
}

// GetRange returns the start and end addresses of this accessor.
func (b *BaseAccessor) GetRange() (uint64, uint64) {
	return b.StartAddress, b.EndAddress
}

func (b *BaseAccessor) String() string {
	return fmt.Sprintf("Range: 0x%X - 0x%X", b.StartAddress, b.EndAddress)
}
