package sycamore

import (
	"deedles.dev/sycamore/config"
	"github.com/charmbracelet/log"
)

// ScrollMethod is a set of libinput scroll methods.
type ScrollMethod uint32

const (
	ScrollNone         ScrollMethod = 0
	ScrollTwoFinger    ScrollMethod = 1 << 0
	ScrollEdge         ScrollMethod = 1 << 1
	ScrollOnButtonDown ScrollMethod = 1 << 2
)

// LibinputDevice is the libinput configuration interface of a pointer
// device.
type LibinputDevice interface {
	ScrollMethods() ScrollMethod

	TapFingerCount() int
	TapEnabled() bool
	SetTapEnabled(bool)

	HasNaturalScroll() bool
	NaturalScroll() bool
	SetNaturalScroll(bool)

	AccelAvailable() bool
	AccelSpeed() float64
	SetAccelSpeed(float64)
}

// isTouchpad reports whether dev supports the scroll methods of a
// touchpad.
func isTouchpad(dev LibinputDevice) bool {
	return dev.ScrollMethods()&(ScrollTwoFinger|ScrollEdge) != 0
}

// configurePointer applies the touchpad configuration to a libinput
// pointer. Tapping is configured for anything that supports it.
// Natural scrolling and acceleration are only touched on touchpads so
// that mice keep their defaults.
func configurePointer(dev LibinputDevice, c config.TouchpadConfig, logger *log.Logger) {
	if (dev.TapFingerCount() > 0) && (dev.TapEnabled() != c.TapToClick) {
		logger.Debug("set tap to click", "enabled", c.TapToClick)
		dev.SetTapEnabled(c.TapToClick)
	}

	if !isTouchpad(dev) {
		return
	}

	if dev.HasNaturalScroll() && (dev.NaturalScroll() != c.NaturalScroll) {
		logger.Debug("set natural scroll", "enabled", c.NaturalScroll)
		dev.SetNaturalScroll(c.NaturalScroll)
	}
	if dev.AccelAvailable() && (dev.AccelSpeed() != c.AccelSpeed) {
		logger.Debug("set accel speed", "speed", c.AccelSpeed)
		dev.SetAccelSpeed(c.AccelSpeed)
	}
}
