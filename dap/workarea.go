package dap

import (
	"sort"

	"github.com/fanoush/openocd/target"
)

var _ target.Target = (*Probe)(nil)

// WorkingAreaSize returns the total RAM range set aside for working areas.
func (p *Probe) WorkingAreaSize() uint32 {
	return p.config.WorkAreaSize
}

// AllocWorkingArea reserves target RAM with a first-fit scan over the
// configured range. Sizes are rounded up to a word multiple.
func (p *Probe) AllocWorkingArea(size uint32) (*target.WorkingArea, error) {
	if p.config.WorkAreaSize == 0 {
		return nil, ErrorNoWorkingArea
	}

	size = (size + 3) &^ 3

	addr := p.config.WorkAreaBase
	end := p.config.WorkAreaBase + p.config.WorkAreaSize
	for _, area := range p.areas {
		if area.Address-addr >= size {
			break
		}
		addr = area.Address + area.Size
	}
	if end < addr || end-addr < size {
		return nil, ErrorNoWorkingArea
	}

	area := &target.WorkingArea{Address: addr, Size: size}
	p.areas = append(p.areas, area)
	sort.Slice(p.areas, func(i, j int) bool {
		return p.areas[i].Address < p.areas[j].Address
	})

	p.logf(3, "allocated working area at 0x%08x, size %d", area.Address, area.Size)
	return area, nil
}

// FreeWorkingArea releases a reservation made by AllocWorkingArea.
func (p *Probe) FreeWorkingArea(area *target.WorkingArea) {
	for i, a := range p.areas {
		if a == area {
			p.areas = append(p.areas[:i], p.areas[i+1:]...)
			return
		}
	}
}
