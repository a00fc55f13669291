package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"buddy/pkg/assets"
	"buddy/pkg/buddy"
	"buddy/pkg/config"
	"buddy/pkg/engine"
	"buddy/pkg/events"
	"buddy/pkg/flight"
	"buddy/pkg/schema"
	"buddy/pkg/timer"
	"buddy/pkg/utils"
)

// preload is the result of fetching one character's body parts.
type preload struct {
	Cache    *assets.Cache
	Failures []schema.AssetFailure
}

type Server struct {
	Echo   *echo.Echo
	Ctx    context.Context
	Config config.Config

	Fetcher    *assets.Fetcher
	Preloads   *flight.Cache[string, preload]
	WebPFlight *flight.Cache[string, []byte]
	Loader     *buddy.Loader
	Events     *events.Dispatcher
	Timer      *timer.Timer
}

func NewServer(ctx context.Context, cfg config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:    e,
		Ctx:     ctx,
		Config:  cfg,
		Fetcher: assets.NewFetcher(cfg.CDNBaseURL, cfg.CDNSubfolder, cfg.FetchTimeout),
	}

	s.Preloads = flight.NewCache(s.preloadCharacter)
	s.Preloads.Expiry(cfg.CacheTTL)
	s.WebPFlight = flight.NewCache(s.transcodeWebP)
	s.WebPFlight.Expiry(cfg.CacheTTL)

	s.Loader = buddy.NewLoader(buddy.LoaderOptions{
		Preload:      s.preloadFor,
		NewRuntime:   func() buddy.Mountable { return engine.NewSim(buddy.TemplateFile()) },
		Fetcher:      s.Fetcher,
		Resolution:   cfg.ResolutionValue(),
		SpinnerDelay: cfg.SpinnerDelay,
		OnLoad: func(c schema.Character) {
			utils.Logf("Buddy loaded: %s (%s)", c.Name, c.FolderName)
		},
		OnError: func(err error) {
			utils.Logf("Buddy error: %v", err)
		},
	})

	s.Events = events.NewDispatcher(s.Loader)
	s.Timer = timer.New(timer.Options{
		Interval:    cfg.Tick,
		OnMilestone: s.Events.HandleMilestone,
		OnStart:     s.Events.TimerStarted,
		OnStop:      s.Events.TimerStopped,
	})

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.GET("/characters", s.handleGetCharacters)
	api.POST("/characters/:id", s.handlePostCharacter) // select + preload

	api.GET("/buddy", s.handleGetBuddy)
	api.POST("/buddy/tap", s.handlePostTap)
	api.POST("/buddy/trigger/:name", s.handlePostTrigger)
	api.POST("/buddy/input", s.handlePostInput)

	api.GET("/assets/:part", s.handleGetAsset) // ?format=webp
	api.GET("/assets/:part/url", s.handleGetAssetURL)

	api.GET("/events", s.handleGetEvents)
	api.GET("/events/log", s.handleGetEventLog)
	api.GET("/events/stream", s.handleGetEventStream)
	api.POST("/events/:id", s.handlePostEvent)
	api.POST("/excitement", s.handlePostExcitement)

	api.GET("/timer", s.handleGetTimer)
	api.POST("/timer/start", s.handlePostTimerStart)
	api.POST("/timer/pause", s.handlePostTimerPause)
	api.POST("/timer/reset", s.handlePostTimerReset)

	api.GET("/schema/events", s.handleGetEventSchema)
}

func (s *Server) preloadCharacter(ctx context.Context, folder string) (preload, error) {
	var p preload
	p.Cache = s.Fetcher.Preload(ctx, folder, s.Config.ResolutionValue(), func(f schema.AssetFailure) {
		p.Failures = append(p.Failures, f)
	})
	if err := ctx.Err(); err != nil {
		return p, err
	}
	return p, nil
}

// preloadFor adapts the coalescing preload cache to buddy.Preloader. Failures
// of a cached preload are replayed to every caller.
func (s *Server) preloadFor(ctx context.Context, c schema.Character, onFailure func(schema.AssetFailure)) (*assets.Cache, error) {
	p, err := s.Preloads.Get(ctx, c.FolderName)
	if err != nil {
		return nil, fmt.Errorf("preload %s: %w", c.FolderName, err)
	}
	for _, f := range p.Failures {
		onFailure(f)
	}
	return p.Cache, nil
}

func (s *Server) Start(addr string) error {
	utils.Logf("Server listening at %s", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	utils.Logf("Shutting down server...")

	saveErr := utils.Save(s.Config.EventLogPath, s.Events.Log())
	shutDownErr := s.Echo.Shutdown(ctx)
	if shutDownErr != nil {
		return shutDownErr
	}

	return saveErr
}
