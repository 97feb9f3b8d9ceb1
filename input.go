package sycamore

import (
	"fmt"

	"deedles.dev/sycamore/config"
	"deedles.dev/sycamore/internal/listener"
)

// DeviceType is the kind of an input device.
type DeviceType int

const (
	DeviceKeyboard DeviceType = iota
	DevicePointer
	DeviceTouch
	DeviceTabletTool
	DeviceTabletPad
	DeviceSwitch
)

func (t DeviceType) String() string {
	switch t {
	case DeviceKeyboard:
		return "keyboard"
	case DevicePointer:
		return "pointer"
	case DeviceTouch:
		return "touch"
	case DeviceTabletTool:
		return "tablet tool"
	case DeviceTabletPad:
		return "tablet pad"
	case DeviceSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// capabilities returns the seat capabilities implied by a device of
// type t.
func (t DeviceType) capabilities() Capabilities {
	switch t {
	case DeviceKeyboard:
		return CapabilityKeyboard
	case DevicePointer, DeviceTabletTool:
		return CapabilityPointer
	case DeviceTouch:
		return CapabilityTouch
	default:
		return 0
	}
}

func (t DeviceType) pointerLike() bool {
	return t.capabilities()&CapabilityPointer != 0
}

// InputDevice is an input device attached to the seat. Pointer
// devices driven by libinput may also implement LibinputDevice.
type InputDevice interface {
	Name() string
	Type() DeviceType
	OnDestroy(func()) *listener.Listener
}

// KeymapNames are the XKB rule names used to compile a keymap.
type KeymapNames struct {
	Rules   string
	Model   string
	Layout  string
	Variant string
	Options string
}

// KeyboardDevice is an InputDevice of type DeviceKeyboard.
type KeyboardDevice interface {
	InputDevice

	SetKeymap(KeymapNames) error
	SetRepeatInfo(rate, delay int)

	OnKey(func(KeyEvent)) *listener.Listener
	OnModifiers(func()) *listener.Listener
}

// device is the seat's record of an attached input device.
type device struct {
	dev       InputDevice
	keyboard  KeyboardDevice
	listeners listener.Group
}

func (seat *Seat) newDevice(dev InputDevice) (*device, error) {
	d := device{dev: dev}

	switch dev.Type() {
	case DeviceKeyboard:
		kb, ok := dev.(KeyboardDevice)
		if !ok {
			return nil, ErrNoKeyboard
		}
		err := seat.setupKeyboard(&d, kb)
		if err != nil {
			return nil, err
		}

	case DevicePointer:
		seat.cursor.attach(dev)
		if li, ok := dev.(LibinputDevice); ok {
			configurePointer(li, seat.server.config.Touchpad, seat.log.With("device", dev.Name()))
		} else {
			seat.log.Debug("not a libinput device", "device", dev.Name())
		}

	case DeviceTabletTool:
		seat.cursor.attach(dev)
	}

	return &d, nil
}

func (seat *Seat) setupKeyboard(d *device, kb KeyboardDevice) error {
	c := seat.server.config.Keyboard
	err := kb.SetKeymap(keymapNames(c))
	if err != nil {
		return fmt.Errorf("set keymap: %w", err)
	}
	kb.SetRepeatInfo(c.RepeatRate, c.RepeatDelay)

	d.keyboard = kb
	d.listeners.Add(kb.OnKey(func(ev KeyEvent) { seat.onKey(kb, ev) }))
	d.listeners.Add(kb.OnModifiers(func() { seat.onModifiers(kb) }))

	seat.setKeyboard(kb)
	return nil
}

func keymapNames(c config.KeyboardConfig) KeymapNames {
	return KeymapNames{
		Rules:   c.Rules,
		Model:   c.Model,
		Layout:  c.Layout,
		Variant: c.Variant,
		Options: c.Options,
	}
}

func (seat *Seat) onKey(kb KeyboardDevice, ev KeyEvent) {
	seat.setKeyboard(kb)
	seat.proto.KeyboardNotifyKey(ev)
}

func (seat *Seat) onModifiers(kb KeyboardDevice) {
	seat.setKeyboard(kb)
	seat.proto.KeyboardNotifyModifiers(kb)
}

func (seat *Seat) setKeyboard(kb KeyboardDevice) {
	if seat.keyboard == kb {
		return
	}
	seat.keyboard = kb
	seat.proto.SetKeyboard(kb)
}

func (d *device) destroy(seat *Seat) {
	d.listeners.Destroy()
	if d.dev.Type().pointerLike() {
		seat.cursor.detach(d.dev)
	}
}
