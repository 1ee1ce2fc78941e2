// Package emulator provides a GUI-based handset emulator.
package emulator

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	log "github.com/sirupsen/logrus"

	"github.com/phinze/darkpad/internal/device"
	"github.com/phinze/darkpad/internal/device/emulator/panel"
)

// Layout constants. The panel is drawn at a quarter of its native
// resolution.
const (
	scale         = 4
	displayWidth  = panel.Width / scale
	displayHeight = panel.Height / scale
	marginX       = 20 // Left/right margin
	marginY       = 20 // Top margin
	headerHeight  = 30 // Title bar height
	footerHeight  = 50 // Instructions
	flashSize     = 128

	displayX     = marginX
	displayY     = headerHeight + marginY
	windowWidth  = 2*marginX + displayWidth
	windowHeight = headerHeight + marginY + displayHeight + footerHeight
)

var (
	colorBackground = color.RGBA{30, 30, 30, 255}
	colorBezel      = color.RGBA{60, 60, 60, 255}
	colorScreenOn   = color.RGBA{40, 44, 52, 255}
	colorScreenOff  = color.RGBA{0, 0, 0, 255}
	colorContact    = color.RGBA{200, 200, 200, 255}
)

// Emulator implements the device.Device interface using Ebitengine for GUI
// rendering. Dragging the mouse over the screen produces multitouch events;
// synthesized keys are shown as flashes on the screen.
type Emulator struct {
	*device.Hub
	panel *panel.Panel

	mu      sync.RWMutex
	open    bool
	onPower func(off bool)

	game       *emulatorGame
	stopCh     chan struct{}
	listenDone chan struct{}
	doneOnce   sync.Once
}

// New creates a new emulator instance.
func New() *Emulator {
	return &Emulator{
		Hub:        device.NewHub(),
		panel:      panel.New(),
		stopCh:     make(chan struct{}),
		listenDone: make(chan struct{}),
	}
}

// SetPowerHandler registers fn to be called, on its own goroutine, whenever
// the emulated display is blanked or unblanked.
func (e *Emulator) SetPowerHandler(fn func(off bool)) {
	e.mu.Lock()
	e.onPower = fn
	e.mu.Unlock()
}

// Open initializes the emulator.
func (e *Emulator) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		return fmt.Errorf("emulator: device is already open")
	}

	e.open = true
	e.stopCh = make(chan struct{})
	e.Hub.Reopen()
	return nil
}

// Close shuts down the emulator.
func (e *Emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return device.ErrClosed
	}

	e.open = false
	e.Hub.Close()

	// Signal the game loop to stop
	close(e.stopCh)
	return nil
}

// IsOpen returns whether the emulator is open.
func (e *Emulator) IsOpen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open
}

// GetModelName returns the emulated model name.
func (e *Emulator) GetModelName() string {
	return "darkpad handset (Emulator)"
}

// Listen blocks until ctx is done or the window is closed.
// The actual event loop runs via RunGUI(), which must be called from main.
func (e *Emulator) Listen(ctx context.Context) error {
	if !e.IsOpen() {
		return device.ErrClosed
	}

	select {
	case <-ctx.Done():
	case <-e.listenDone:
	}
	return nil
}

// KeyDown flashes the key on the emulated screen.
func (e *Emulator) KeyDown(code device.KeyCode) error {
	if !e.IsOpen() {
		return device.ErrClosed
	}
	e.panel.Key(code, true, time.Now())
	log.WithField("key", code).Debug("Emulator key down")
	return nil
}

// KeyUp releases the key. Releasing KEY_POWER toggles the display.
func (e *Emulator) KeyUp(code device.KeyCode) error {
	if !e.IsOpen() {
		return device.ErrClosed
	}
	if toggled, off := e.panel.Key(code, false, time.Now()); toggled {
		e.notifyPower(off)
	}
	return nil
}

// TouchOff cuts touch power after delay.
func (e *Emulator) TouchOff(delay time.Duration) error {
	if !e.IsOpen() {
		return device.ErrClosed
	}
	if delay > 0 {
		time.AfterFunc(delay, func() { e.panel.PowerOffTouch(time.Now()) })
		return nil
	}
	e.panel.PowerOffTouch(time.Now())
	return nil
}

// Vibrate shakes the emulated screen.
func (e *Emulator) Vibrate(strength int) error {
	if !e.IsOpen() {
		return device.ErrClosed
	}
	e.panel.Vibrate(time.Now())
	return nil
}

// RunGUI starts the Ebitengine GUI loop. This MUST be called from the main
// goroutine on macOS due to Cocoa threading requirements. This method blocks
// until the window is closed.
func (e *Emulator) RunGUI() error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return device.ErrClosed
	}
	e.game = &emulatorGame{emu: e, flashes: make(map[panel.Flash]*ebiten.Image)}
	e.mu.Unlock()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("darkpad emulator")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	// Run the game loop (this blocks until the window is closed)
	err := ebiten.RunGame(e.game)

	// Signal Listen() to unblock
	e.doneOnce.Do(func() { close(e.listenDone) })
	return err
}

func (e *Emulator) notifyPower(off bool) {
	e.mu.RLock()
	fn := e.onPower
	e.mu.RUnlock()

	log.WithField("off", off).Info("Emulated display power changed")
	if fn != nil {
		go fn(off)
	}
}

// emulatorGame implements ebiten.Game for the emulator.
type emulatorGame struct {
	emu     *Emulator
	flashes map[panel.Flash]*ebiten.Image
}

func (g *emulatorGame) Update() error {
	// Check for stop signal
	select {
	case <-g.emu.stopCh:
		return ebiten.Termination
	default:
	}

	g.handleInput()
	return nil
}

func (g *emulatorGame) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	ebitenutil.DebugPrintAt(screen, "darkpad emulator", windowWidth/2-48, 8)

	v := g.emu.panel.View(time.Now())

	x, y := displayX, displayY
	if v.Buzzing {
		x += 2
	}

	bezel := color.Color(colorBezel)
	if v.TouchOff {
		bezel = panel.ColorAlert
	}
	drawRect(screen, x-2, y-2, displayWidth+4, displayHeight+4, bezel)

	if v.DisplayOff {
		drawRect(screen, x, y, displayWidth, displayHeight, colorScreenOff)
	} else {
		drawRect(screen, x, y, displayWidth, displayHeight, colorScreenOn)
		ebitenutil.DebugPrintAt(screen, "display on", x+8, y+8)
	}

	if v.Touching {
		drawRect(screen, x+v.X/scale-3, y+v.Y/scale-3, 6, 6, colorContact)
	}

	if v.Flash != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(x+(displayWidth-flashSize)/2), float64(y+(displayHeight-flashSize)/2))
		screen.DrawImage(g.flashImage(*v.Flash), op)
	}

	instrY := windowHeight - 36
	ebitenutil.DebugPrintAt(screen, "Drag on the screen to touch", 10, instrY)
	ebitenutil.DebugPrintAt(screen, "P: toggle display power", 10, instrY+16)
}

func (g *emulatorGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowWidth, windowHeight
}

func (g *emulatorGame) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		off := !g.emu.panel.DisplayOff()
		if g.emu.panel.SetDisplayOff(off) {
			g.emu.notifyPower(off)
		}
	}

	mx, my := ebiten.CursorPosition()
	px, py := (mx-displayX)*scale, (my-displayY)*scale
	now := time.Now()

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		if mx >= displayX && mx < displayX+displayWidth && my >= displayY && my < displayY+displayHeight {
			g.dispatch(g.emu.panel.Press(px, py, now))
		}
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.dispatch(g.emu.panel.Release(now))
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		g.dispatch(g.emu.panel.Move(px, py, now))
	}
}

func (g *emulatorGame) dispatch(evs []device.InputEvent) {
	for _, ev := range evs {
		g.emu.Hub.Dispatch(ev)
	}
}

func (g *emulatorGame) flashImage(f panel.Flash) *ebiten.Image {
	if img, ok := g.flashes[f]; ok {
		return img
	}
	img := ebiten.NewImageFromImage(panel.RenderFlash(f, flashSize))
	g.flashes[f] = img
	return img
}

// Helper function to draw a filled rectangle
func drawRect(screen *ebiten.Image, x, y, w, h int, c color.Color) {
	rect := ebiten.NewImage(w, h)
	rect.Fill(c)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(rect, op)
}
