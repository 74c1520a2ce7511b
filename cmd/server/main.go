package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"time"

	"cargoclash/internal/adapter/fanout"
	httpadapter "cargoclash/internal/adapter/http"
	metricsinmem "cargoclash/internal/adapter/metrics/inmemory"
	gormrepo "cargoclash/internal/adapter/repo/gorm"
	"cargoclash/internal/adapter/repo/memory"
	"cargoclash/internal/app/combat"
	"cargoclash/internal/app/market"
	"cargoclash/internal/app/mission"
	"cargoclash/internal/app/ports"
	"cargoclash/internal/app/tick"
	"cargoclash/internal/app/travel"
	"cargoclash/internal/app/worldevent"
	"cargoclash/internal/config"
	"cargoclash/internal/domain/game"
	"cargoclash/internal/worldgen"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/rs/zerolog"
)

type repos struct {
	Tx        ports.TxManager
	Vehicles  ports.VehicleRepository
	Players   ports.PlayerRepository
	Locations ports.LocationRepository
	Missions  ports.MissionRepository
	Markets   ports.MarketRepository
	CombatLog ports.CombatLogRepository
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}
	log := newLogger(cfg.LogLevel)

	r, err := buildRepos(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}

	seed, err := worldgen.LoadFile(cfg.World.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("world seed invalid")
	}
	applier := worldgen.Applier{
		Tx: r.Tx, Locations: r.Locations, Markets: r.Markets,
		Players: r.Players, Vehicles: r.Vehicles,
	}
	if err := applier.Apply(context.Background(), seed, time.Now().UTC()); err != nil {
		log.Fatal().Err(err).Msg("world seed failed")
	}

	hub := fanout.NewHub(log.With().Str("component", "fanout").Logger())
	recorder := metricsinmem.NewRecorder()

	travelUC := &travel.UseCase{
		Tx: r.Tx, Vehicles: r.Vehicles, Locations: r.Locations,
		Publisher: hub, Metrics: recorder,
		Cfg: travel.Config{TimeUnit: cfg.World.TimeUnit, ArrivalBatch: 256},
	}
	missionUC := mission.UseCase{
		Tx: r.Tx, Missions: r.Missions, Vehicles: r.Vehicles,
		Players: r.Players, Locations: r.Locations,
		Publisher: hub, Metrics: recorder,
		Travel: travelUC, ExpiryBatch: 256,
	}
	travelUC.Arrivals = missionUC

	marketUC := market.UseCase{
		Tx: r.Tx, Entries: r.Markets, Vehicles: r.Vehicles,
		Players: r.Players, Locations: r.Locations,
		Publisher: hub, Metrics: recorder,
		Pricing: game.DefaultPricing(),
	}
	combatUC := combat.UseCase{
		Tx: r.Tx, Vehicles: r.Vehicles, Players: r.Players,
		Locations: r.Locations, Log: r.CombatLog,
		Publisher: hub, Metrics: recorder,
		Missions: missionUC, Cfg: game.DefaultCombat(),
	}

	noticesUC := worldevent.UseCase{
		Tx: r.Tx, Locations: r.Locations, Publisher: hub,
		Chance: worldevent.DefaultChance,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	driver := &tick.Driver{
		Arrivals:  travelUC,
		Deadlines: missionUC,
		Drift:     marketUC,
		Replenish: missionUC,
		Notices:   noticesUC,
		Cfg: tick.Config{
			DriftEvery:    cfg.World.DriftEvery,
			MissionTarget: cfg.World.MissionTarget,
			NoticeEvery:   cfg.World.NoticeEvery,
		},
		Log: log.With().Str("component", "tick").Logger(),
	}
	go driver.Run(context.Background(), cfg.World.TickInterval)

	go serveWS(cfg.WSAddr, hub, log)

	h := httpadapter.Handler{
		TravelUC:      *travelUC,
		MaintenanceUC: travel.MaintenanceUseCase{Tx: r.Tx, Vehicles: r.Vehicles, Players: r.Players, Metrics: recorder},
		MissionUC:     missionUC,
		MarketUC:      marketUC,
		CombatUC:      combatUC,
		Tx:            r.Tx,
		Players:       r.Players,
		Vehicles:      r.Vehicles,
		Hub:           hub,
		CommandTimeout: cfg.World.CommandTimeout,
	}

	s := server.Default(server.WithHostPorts(cfg.HTTPAddr))
	h.RegisterRoutes(s)
	s.GET("/ops/metrics", func(_ context.Context, ctx *app.RequestContext) {
		ctx.JSON(200, recorder.Snapshot())
	})

	log.Info().
		Str("http", cfg.HTTPAddr).
		Str("ws", cfg.WSAddr).
		Msg("cargoclash server up")
	s.Spin()
}

func buildRepos(cfg config.Config, log zerolog.Logger) (repos, error) {
	if cfg.DB.InMemory {
		store := memory.NewStore()
		log.Info().Msg("using in-memory storage")
		return repos{
			Tx:        memory.NewTxManager(store),
			Vehicles:  memory.NewVehicleRepo(store),
			Players:   memory.NewPlayerRepo(store),
			Locations: memory.NewLocationRepo(store),
			Missions:  memory.NewMissionRepo(store),
			Markets:   memory.NewMarketRepo(store),
			CombatLog: memory.NewCombatLogRepo(store),
		}, nil
	}

	db, err := gormrepo.Open(cfg.DB.DSN, cfg.DB.SQLitePath, log)
	if err != nil {
		return repos{}, err
	}
	if err := gormrepo.Migrate(db); err != nil {
		return repos{}, err
	}
	return repos{
		Tx:        gormrepo.NewTxManager(db),
		Vehicles:  gormrepo.NewVehicleRepo(db),
		Players:   gormrepo.NewPlayerRepo(db),
		Locations: gormrepo.NewLocationRepo(db),
		Missions:  gormrepo.NewMissionRepo(db),
		Markets:   gormrepo.NewMarketRepo(db),
		CombatLog: gormrepo.NewCombatLogRepo(db),
	}, nil
}

func serveWS(addr string, hub *fanout.Hub, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		fanout.ServeWS(hub, w, r)
	})
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("websocket listener failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
