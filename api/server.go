// Package api is the HTTP transport for purchases and price reads.
package api

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/golang/glog"
	"github.com/rustyeddy/drinkx/broadcast"
	"github.com/rustyeddy/drinkx/market"
	"github.com/rustyeddy/drinkx/pricing"
	"github.com/shopspring/decimal"
)

// Response messages, as the bar's existing frontend shows them.
const (
	msgUnknownDrink = "Boisson inconnue"
	msgPriceLimit   = "Prix maximum atteint"
)

func msgPurchased(name string) string { return "Achat de " + name + " enregistré !" }

// Pricer is the part of the pricing engine the HTTP layer needs.
type Pricer interface {
	Purchase(name string, now time.Time) (market.Item, bool, error)
	Snapshot() market.Snapshot
	Get(name string) (market.Item, error)
}

// PurchaseResponse is returned for a successful purchase.
type PurchaseResponse struct {
	Message string  `json:"message"`
	Drink   string  `json:"drink"`
	Price   float64 `json:"price"`
	Display string  `json:"display"`
}

// ErrorResponse is returned for failures.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Options tune the HTTP server.
type Options struct {
	CORSOrigins []string
	// AccessLog turns on the fiber request logger.
	AccessLog bool
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Server wires HTTP routes to the pricing engine and the broadcast port.
type Server struct {
	app    *fiber.App
	prices Pricer
	pub    *broadcast.Publisher
	clock  func() time.Time
}

// New returns a server that announces purchases through pub. A nil pub
// announces nothing.
func New(prices Pricer, pub *broadcast.Publisher, opts Options) *Server {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "drinkx",
			DisableStartupMessage: true,
			UnescapePath:          true,
		}),
		prices: prices,
		pub:    pub,
		clock:  clock,
	}

	origins := "*"
	if len(opts.CORSOrigins) > 0 {
		origins = strings.Join(opts.CORSOrigins, ",")
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET, POST, OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if opts.AccessLog {
		s.app.Use(logger.New())
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Get("/buy/:name", s.buy)

	api := s.app.Group("/api")
	api.Get("/drinks", s.list)
	api.Get("/drinks/:name", s.get)
	api.Post("/drinks/:name/buy", s.buy)
}

// App exposes the fiber app, mostly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error { return s.app.Listener(ln) }

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) buy(c *fiber.Ctx) error {
	name := c.Params("name")

	it, changed, err := s.prices.Purchase(name, s.clock())
	if errors.Is(err, market.ErrUnknownItem) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Message: msgUnknownDrink})
	}
	if errors.Is(err, pricing.ErrPriceOverflow) {
		glog.Warningf("purchase %q: %s", name, err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Message: msgPriceLimit})
	}
	if err != nil {
		glog.Errorf("purchase %q: %s", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: "purchase failed"})
	}

	display := Display(it.Price)
	glog.Infof("purchase of %s, new price %s", it.Name, display)
	if changed {
		s.pub.Publish()
	}

	return c.JSON(PurchaseResponse{
		Message: msgPurchased(it.Name),
		Drink:   it.Name,
		Price:   it.Price,
		Display: display,
	})
}

func (s *Server) list(c *fiber.Ctx) error {
	return c.JSON(s.prices.Snapshot())
}

func (s *Server) get(c *fiber.Ctx) error {
	it, err := s.prices.Get(c.Params("name"))
	if errors.Is(err, market.ErrUnknownItem) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Message: msgUnknownDrink})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: err.Error()})
	}
	return c.JSON(it)
}

// Display rounds a price to two decimals for people to read. Stored prices
// are never rounded.
func Display(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}
