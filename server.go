package sycamore

import (
	"os"
	"time"

	"deedles.dev/sycamore/config"
	"deedles.dev/ximage/geom"
	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
)

// Options are the collaborators and settings used to construct a
// Server.
type Options struct {
	Config *config.Config
	Logger *log.Logger

	Scene    Scene
	Seat     SeatProtocol
	Cursor   CursorImage
	Gestures GestureProtocol

	// Now returns the current time for events that the core generates
	// itself. It defaults to time.Now.
	Now func() time.Time
}

// Server is the state shared by every part of the compositor core.
// There is exactly one per session.
type Server struct {
	config *config.Config
	log    *log.Logger
	now    func() time.Time

	scene Scene

	outputs []*Output
	views   []*View
	mapped  []*View
	layers  []*Layer
	popups  []*popup
	refs    viewRegistry

	seat *Seat
}

// NewServer creates the core. Scene and Seat are required. A nil
// Config uses config.Default.
func NewServer(opts Options) (*Server, error) {
	if opts.Scene == nil {
		return nil, ErrNoScene
	}
	if opts.Seat == nil {
		return nil, ErrNoSeat
	}

	server := Server{
		config: opts.Config,
		log:    opts.Logger,
		now:    opts.Now,
		scene:  opts.Scene,
	}
	if server.config == nil {
		c := config.Default
		server.config = &c
	}
	if server.log == nil {
		server.log = newLogger(server.config.Logging)
	}
	if server.now == nil {
		server.now = time.Now
	}

	server.seat = newSeat(&server, opts.Seat, opts.Cursor, opts.Gestures)

	server.log.Info("server initialized")
	return &server, nil
}

func newLogger(c config.LoggingConfig) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "sycamore",
		ReportTimestamp: true,
	})

	level, err := log.ParseLevel(c.Level)
	if err != nil {
		logger.Warn("unknown log level", "level", c.Level)
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// Destroy tears down everything that the server owns, in the reverse
// order of construction.
func (server *Server) Destroy() {
	for _, view := range slices.Clone(server.views) {
		view.destroy()
	}
	for _, p := range slices.Clone(server.popups) {
		server.destroyPopup(p)
	}
	for _, layer := range slices.Clone(server.layers) {
		layer.destroy()
	}
	for _, out := range slices.Clone(server.outputs) {
		server.removeOutput(out)
	}
	server.seat.destroy()

	server.log.Info("server destroyed")
}

func (server *Server) Config() *config.Config {
	return server.config
}

func (server *Server) Logger() *log.Logger {
	return server.log
}

func (server *Server) Seat() *Seat {
	return server.seat
}

func (server *Server) Cursor() *Cursor {
	return server.seat.cursor
}

// MappedViews returns the mapped views, most recently focused first.
func (server *Server) MappedViews() []*View {
	return slices.Clone(server.mapped)
}

func (server *Server) Outputs() []*Output {
	return slices.Clone(server.outputs)
}

func (server *Server) minSize() geom.Point[int] {
	return geom.Pt(server.config.Window.MinWidth, server.config.Window.MinHeight)
}

// surfaceAt finds the topmost surface at the given layout coordinates
// and the view or layer that it belongs to. Popups and subsurfaces are
// children of their toplevel's node, so the owner is found by walking
// up the tree to the first node carrying an identity tag.
func (server *Server) surfaceAt(lx, ly float64) (surface Surface, owner any, sx, sy float64) {
	node, sx, sy := server.scene.NodeAt(lx, ly)
	if node == nil {
		return nil, nil, 0, 0
	}
	surface = node.Surface()
	if surface == nil {
		return nil, nil, 0, 0
	}

	for n := node; n != nil; n = n.Parent() {
		if data := n.Data(); data != nil {
			return surface, data, sx, sy
		}
	}
	return surface, nil, sx, sy
}

// ViewAt returns the mapped view under the given layout coordinates
// along with the exact surface and the surface-local coordinates.
func (server *Server) ViewAt(lx, ly float64) (view *View, surface Surface, sx, sy float64, ok bool) {
	surface, owner, sx, sy := server.surfaceAt(lx, ly)
	view, _ = owner.(*View)
	if (view == nil) || !view.mapped {
		return nil, nil, 0, 0, false
	}
	return view, surface, sx, sy, true
}
