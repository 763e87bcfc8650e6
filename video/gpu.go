package video

import (
	"sort"

	"github.com/hallowmere/goemerald/addr"
)

// PPU renders one 240x160 frame a scanline at a time, mirroring the
// teacher's GPU struct but generalized from the Game Boy's fixed single
// background to the GBA's four BG layers, affine sampling and OBJ
// compositing. Affine reference points are the only state that persists
// across RenderScanline calls within a frame; everything else is re-read
// from the bus each scanline since registers can change between lines.
type PPU struct {
	fb     *FrameBuffer
	affine [2]affineParams // index 0 = BG2, index 1 = BG3
}

// NewPPU constructs a PPU with a fresh, zeroed framebuffer.
func NewPPU() *PPU {
	return &PPU{fb: NewFrameBuffer()}
}

// FrameBuffer returns the PPU's backing framebuffer.
func (p *PPU) FrameBuffer() *FrameBuffer {
	return p.fb
}

// pixelCandidate is one layer's contribution to a single output pixel,
// ready for priority sorting and blending.
type pixelCandidate struct {
	color    uint16
	priority uint8
	isObj    bool
	bgIndex  int
	target   blendTarget
	semi     bool
}

// less orders candidates by ascending priority; on a tie an OBJ wins over
// a BG, and among BGs the lower index wins, per the compositor ordering
// rule in §4.6.
func less(a, b pixelCandidate) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if a.isObj != b.isObj {
		return a.isObj
	}
	return a.bgIndex < b.bgIndex
}

func (p *PPU) prepareAffine(bus Bus, ly uint8) {
	p.affine[0].pa = readAffineCoeff(bus, addr.BG2PA)
	p.affine[0].pb = readAffineCoeff(bus, addr.BG2PB)
	p.affine[0].pc = readAffineCoeff(bus, addr.BG2PC)
	p.affine[0].pd = readAffineCoeff(bus, addr.BG2PD)
	p.affine[1].pa = readAffineCoeff(bus, addr.BG3PA)
	p.affine[1].pb = readAffineCoeff(bus, addr.BG3PB)
	p.affine[1].pc = readAffineCoeff(bus, addr.BG3PC)
	p.affine[1].pd = readAffineCoeff(bus, addr.BG3PD)

	if ly == 0 {
		p.affine[0].refX = readAffineRef(bus, addr.BG2X)
		p.affine[0].refY = readAffineRef(bus, addr.BG2Y)
		p.affine[1].refX = readAffineRef(bus, addr.BG3X)
		p.affine[1].refY = readAffineRef(bus, addr.BG3Y)
	}
}

// AdvanceAffineRefs advances BG2 and BG3's live reference points by their
// respective (PB, PD) -- the per-scanline step, as opposed to (PA, PC)
// which step the sample point across a single scanline -- run once per
// scanline after rendering it, per the frame-driver pseudocode in §4.8.
func (p *PPU) AdvanceAffineRefs() {
	p.affine[0].refX += p.affine[0].pb
	p.affine[0].refY += p.affine[0].pd
	p.affine[1].refX += p.affine[1].pb
	p.affine[1].refY += p.affine[1].pd
}

func bgModeLegal(mode, index uint8) bool {
	switch mode {
	case 0:
		return true
	case 1:
		return index <= 2
	case 2:
		return index == 2 || index == 3
	default:
		return index == 2
	}
}

func (p *PPU) bgCandidates(bus Bus, disp dispControl, bgs [4]bgLayer, gate [6]bool, x, ly int) []pixelCandidate {
	var out []pixelCandidate
	add := func(i int, c uint16, ok bool) {
		if ok && disp.bgEnable[i] && gate[i] && bgModeLegal(disp.mode, uint8(i)) {
			out = append(out, pixelCandidate{color: c, priority: bgs[i].priority, bgIndex: i, target: blendTarget(i)})
		}
	}

	switch disp.mode {
	case 0:
		for i := 0; i < 4; i++ {
			c, ok := textPixel(bus, bgs[i], x, ly)
			add(i, c, ok)
		}
	case 1:
		for i := 0; i < 2; i++ {
			c, ok := textPixel(bus, bgs[i], x, ly)
			add(i, c, ok)
		}
		c, ok := affinePixel(bus, bgs[2], p.affine[0], x)
		add(2, c, ok)
	case 2:
		c2, ok2 := affinePixel(bus, bgs[2], p.affine[0], x)
		add(2, c2, ok2)
		c3, ok3 := affinePixel(bus, bgs[3], p.affine[1], x)
		add(3, c3, ok3)
	case 3, 4, 5:
		c, ok := bitmapPixel(bus, disp.mode, bgs[2], p.affine[0], disp.frameSelect, x)
		add(2, c, ok)
	}
	return out
}

func windowGateAt(win windowConfig, disp dispControl, objWin bool, x, y int) [6]bool {
	if disp.win0Enable && insideWindow(uint8(x), win.win0Left, win.win0Right) && insideWindow(uint8(y), win.win0Top, win.win0Bottom) {
		return win.win0Enable
	}
	if disp.win1Enable && insideWindow(uint8(x), win.win1Left, win.win1Right) && insideWindow(uint8(y), win.win1Top, win.win1Bottom) {
		return win.win1Enable
	}
	if disp.winObjEnable && objWin {
		return win.objWinEnable
	}
	return win.outEnable
}

var allGatesOpen = [6]bool{true, true, true, true, true, true}

// RenderScanline draws GBA scanline ly (0-159) into the framebuffer,
// gathering the visible BG and OBJ candidates at each column, applying
// window clipping and BLDCNT blending, then converting the winning
// BGR555 color to the host's RGB565 format.
func (p *PPU) RenderScanline(bus Bus, ly uint8) {
	row := int(ly) * FramebufferWidth
	disp := readDispControl(bus)
	if disp.forceBlank {
		for x := 0; x < FramebufferWidth; x++ {
			p.fb.buffer[row+x] = 0xFFFF
		}
		return
	}

	p.prepareAffine(bus, ly)
	defer p.AdvanceAffineRefs()

	bld := readBlendControl(bus)
	win := readWindowConfig(bus)
	windowsActive := disp.win0Enable || disp.win1Enable || disp.winObjEnable

	var bgs [4]bgLayer
	bgs[0] = readBGLayer(bus, addr.BG0CNT, addr.BG0HOFS, addr.BG0VOFS)
	bgs[1] = readBGLayer(bus, addr.BG1CNT, addr.BG1HOFS, addr.BG1VOFS)
	bgs[2] = readBGLayer(bus, addr.BG2CNT, addr.BG2HOFS, addr.BG2VOFS)
	bgs[3] = readBGLayer(bus, addr.BG3CNT, addr.BG3HOFS, addr.BG3VOFS)

	var sprites [128]sprite
	if disp.objEnable {
		oam := bus.OAM()
		for i := range sprites {
			sprites[i] = parseSprite(oam, i)
		}
	}
	objColorLine, objPriorityLine, objSemiLine, objWinLine := computeObjLine(bus, sprites[:], disp.obj1D, int(ly))

	pal := bus.Palette()

	for x := 0; x < FramebufferWidth; x++ {
		gate := allGatesOpen
		if windowsActive {
			gate = windowGateAt(win, disp, objWinLine[x], x, int(ly))
		}

		candidates := p.bgCandidates(bus, disp, bgs, gate, x, int(ly))
		if disp.objEnable && gate[4] && objPriorityLine[x] < 4 {
			candidates = append(candidates, pixelCandidate{
				color:    objColorLine[x],
				priority: objPriorityLine[x],
				isObj:    true,
				target:   targetOBJ,
				semi:     objSemiLine[x],
			})
		}

		var out uint16
		if len(candidates) == 0 {
			out = backdropColor(pal)
		} else {
			sort.Slice(candidates, func(i, j int) bool { return less(candidates[i], candidates[j]) })
			top := candidates[0]
			below := pixelCandidate{color: backdropColor(pal), target: targetBackdrop}
			if len(candidates) > 1 {
				below = candidates[1]
			}
			if gate[5] || (top.isObj && top.semi) {
				out = applyBlend(bld, top.color, top.target, below.color, true, below.target, top.isObj && top.semi)
			} else {
				out = top.color
			}
		}

		p.fb.buffer[row+x] = BGR555ToRGB565(out)
	}
}
