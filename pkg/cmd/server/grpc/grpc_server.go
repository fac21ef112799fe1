package grpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/otelconnect"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/mpapenbr/lorawan-service-manager/log"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/cmd/setup"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
	"github.com/mpapenbr/lorawan-service-manager/pkg/db/postgres"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth/impl"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/cache"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/pgxrepos"
	adrserver "github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/adr"
	codecserver "github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/device"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/deviceprofile"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/tenant"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/uplink"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/integration"
	"github.com/mpapenbr/lorawan-service-manager/pkg/processing"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/broadcast"
	utilsCache "github.com/mpapenbr/lorawan-service-manager/pkg/utils/cache"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/filewatch"
)

const tenantCacheExpiration = 5 * time.Minute

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grpc",
		Short: "starts the gRPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.GrpcServerAddr,
		"grpc-server-addr",
		"a",
		"localhost:8080",
		"gRPC server listen address")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-server-addr",
		"",
		"gRPC server listen address for TLS connections")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"file containing the TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"file containing the TLS key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca",
		"",
		"file containing the TLS root CA for client certificates")
	cmd.Flags().StringVar(&config.TraefikCerts,
		"traefik-certs",
		"",
		"traefik acme.json file to read the certificate from")
	cmd.Flags().StringVar(&config.TraefikCertDomain,
		"traefik-cert-domain",
		"",
		"domain to look up within the traefik certs")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use 'stdout' for console)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value")
	cmd.Flags().Float64Var(&config.UplinkRateLimit,
		"uplink-rate-limit",
		0,
		"max uplinks per second and device (0 disables the limit)")
	cmd.Flags().IntVar(&config.UplinkRateBurst,
		"uplink-rate-burst",
		5,
		"burst size for the uplink rate limit")
	cmd.Flags().BoolVar(&config.WatchPlugins,
		"watch-plugins",
		true,
		"reload ADR and codec plugins when their files change")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setup.InitLogger()
	ctx = log.AddToContext(ctx, logger)
	var telemetry *config.Telemetry

	appConfig, err := setup.AppConfig()
	if err != nil {
		log.Error("invalid configuration", log.ErrorField(err))
		return err
	}
	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("grpc-addr", config.GrpcServerAddr),
		log.Any("regions", lo.Map(appConfig.Network.Regions,
			func(r config.RegionConfig, _ int) string { return r.ID })),
		log.Any("integrations", appConfig.Integration.Enabled),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	waitForRequiredServices(ctx, &appConfig.Integration)

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	components, err := setup.NewComponents(ctx, appConfig)
	if err != nil {
		log.Error("could not setup network components", log.ErrorField(err))
		return err
	}
	if config.WatchPlugins {
		if err = watchPlugins(ctx, components); err != nil {
			log.Warn("Could not watch plugin files", log.ErrorField(err))
		}
	}

	multi, err := integration.New(ctx, &appConfig.Integration)
	if err != nil {
		log.Error("could not setup integrations", log.ErrorField(err))
		return err
	}
	queueCfg := appConfig.Integration.Queue
	integrations := integration.NewAsync(multi,
		integration.WithQueueSize(queueCfg.Size),
		integration.WithWorkers(queueCfg.Workers),
		integration.WithTimeout(queueCfg.Timeout))
	defer integrations.Close()

	log.Info("Starting server")
	pool := postgres.InitWithURL(
		config.DB,
		postgres.WithTracer(
			logger.Named("sql"),
			setup.ParseLogLevel(config.SQLLogLevel, log.DebugLevel)),
	)
	defer pool.Close()

	events := broadcast.NewBroadcastServer[*lsmv1.UplinkEvent]("uplinks",
		broadcast.WithTelemetry[*lsmv1.UplinkEvent]("uplink"))
	defer events.Close()

	repos := pgxrepos.NewRepositoriesFromPool(pool)
	txMgr := pgxrepos.NewTransactionManager(pool)
	processor := processing.NewProcessor(
		processing.WithRepositories(repos, txMgr),
		processing.WithRegions(components.Regions),
		processing.WithAdrRegistry(components.Adr),
		processing.WithCodecService(components.Codecs),
		processing.WithIntegration(integrations),
		processing.WithEventBroadcast(events),
		processing.WithRateLimit(uplinkLimit(), config.UplinkRateBurst),
	)

	mux := registerGrpcServices(&services{
		repos:      repos,
		tx:         txMgr,
		pe:         permission.NewPermissionEvaluator(),
		tenants:    cache.NewTenantCache(repos.Tenant(), tenantCacheExpiration),
		components: components,
		events:     events,
		processor:  processor,
	})
	handler := h2c.NewHandler(newCORS().Handler(mux), &http2.Server{})

	servers := []*http.Server{}
	errCh := make(chan error, 2)
	start := func(srv *http.Server, tls bool) {
		servers = append(servers, srv)
		go func() {
			var err error
			if tls {
				log.Info("Starting gRPC server (TLS)", log.String("addr", srv.Addr))
				err = srv.ListenAndServeTLS("", "")
			} else {
				log.Info("Starting gRPC server", log.String("addr", srv.Addr))
				err = srv.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}
	//nolint:gosec // by design
	start(&http.Server{Addr: config.GrpcServerAddr, Handler: handler}, false)
	if config.TLSServerAddr != "" {
		if tlsConfig := NewTLSConfigProvider(ctx); tlsConfig != nil {
			//nolint:gosec // by design
			start(&http.Server{
				Addr:      config.TLSServerAddr,
				Handler:   mux,
				TLSConfig: tlsConfig,
			}, true)
		} else {
			log.Warn("TLS server address given but no certificate available")
		}
	}
	log.Info("Server started")
	setupGoRoutinesDump()

	select {
	case <-ctx.Done():
		log.Debug("Got signal")
	case err = <-errCh:
		log.Error("server could not be started", log.ErrorField(err))
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.Warn("server shutdown", log.ErrorField(serr))
		}
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return err
}

func uplinkLimit() rate.Limit {
	if config.UplinkRateLimit <= 0 {
		return rate.Inf
	}
	return rate.Limit(config.UplinkRateLimit)
}

type services struct {
	repos      api.Repositories
	tx         api.TransactionManager
	pe         permission.PermissionEvaluator
	tenants    utilsCache.Cache[string, model.Tenant]
	components *setup.Components
	events     broadcast.BroadcastServer[*lsmv1.UplinkEvent]
	processor  *processing.Processor
}

func registerGrpcServices(s *services) *http.ServeMux {
	mux := http.NewServeMux()
	chain := []connect.Interceptor{}
	if myOtel, err := otelconnect.NewInterceptor(); err == nil {
		chain = append(chain, myOtel)
	} else {
		log.Warn("Could not create otel interceptor", log.ErrorField(err))
	}
	chain = append(chain,
		util.NewTraceIDInterceptor(),
		util.NewErrorInterceptor(),
		impl.NewAuthInterceptor(
			auth.WithAdminToken(config.AdminToken),
			auth.WithTenantCache(s.tenants)))
	interceptors := connect.WithInterceptors(chain...)

	mux.Handle(x.NewTenantServiceHandler(
		tenant.NewServer(
			tenant.WithRepository(s.repos.Tenant()),
			tenant.WithPermissionEvaluator(s.pe),
			tenant.WithTenantCache(s.tenants),
			tenant.WithTracer(otel.Tracer("lsm.tenant"))),
		interceptors))
	mux.Handle(x.NewDeviceProfileServiceHandler(
		deviceprofile.NewServer(
			deviceprofile.WithRepositories(s.repos),
			deviceprofile.WithPermissionEvaluator(s.pe),
			deviceprofile.WithRegions(s.components.Regions),
			deviceprofile.WithAdrRegistry(s.components.Adr),
			deviceprofile.WithCodecService(s.components.Codecs)),
		interceptors))
	mux.Handle(x.NewDeviceServiceHandler(
		device.NewServer(
			device.WithRepositories(s.repos),
			device.WithTransactionManager(s.tx),
			device.WithPermissionEvaluator(s.pe),
			device.WithEventBroadcast(s.events)),
		interceptors))
	mux.Handle(x.NewCodecServiceHandler(
		codecserver.NewServer(
			codecserver.WithRepositories(s.repos),
			codecserver.WithPermissionEvaluator(s.pe),
			codecserver.WithCodecService(s.components.Codecs)),
		interceptors))
	mux.Handle(x.NewAdrServiceHandler(
		adrserver.NewServer(
			adrserver.WithPermissionEvaluator(s.pe),
			adrserver.WithRegions(s.components.Regions),
			adrserver.WithAdrRegistry(s.components.Adr)),
		interceptors))
	mux.Handle(x.NewUplinkServiceHandler(
		uplink.NewServer(
			uplink.WithRepositories(s.repos),
			uplink.WithPermissionEvaluator(s.pe),
			uplink.WithProcessor(s.processor)),
		interceptors))
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(x.ServiceNames()...)))
	return mux
}

func watchPlugins(ctx context.Context, c *setup.Components) error {
	files := c.PluginFiles()
	if len(files) == 0 {
		return nil
	}
	l := log.GetFromContext(ctx).Named("plugins")
	_, err := filewatch.Start(ctx, files, func(path string) {
		if err := c.ReloadPlugin(ctx, path); err != nil {
			l.Error("could not reload plugin",
				log.String("file", path), log.ErrorField(err))
		}
	}, filewatch.WithLogger(l))
	return err
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

//nolint:whitespace // can't make both editor and linter happy
func waitForRequiredServices(
	ctx context.Context, cfg *config.IntegrationConfig,
) {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	addrs := []string{}
	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		addrs = append(addrs, postgresAddr)
	}
	if lo.Contains(cfg.Enabled, integration.TypeRedis) {
		addrs = append(addrs, cfg.Redis.Addr)
	}
	if lo.Contains(cfg.Enabled, integration.TypeNATS) {
		if addr, _ := utils.ExtractFromServiceURL(cfg.NATS.URL); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	log.Debug("Waiting for connection checks to return", log.Any("addrs", addrs))
	if err := utils.WaitForAll(ctx, addrs, timeout); err != nil {
		log.Fatal("required services not ready", log.ErrorField(err))
	}
	log.Debug("Required services are available")
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Connect-Accept-Encoding",
			"Connect-Content-Encoding",
			"Content-Encoding",
			"Grpc-Accept-Encoding",
			"Grpc-Encoding",
			"Grpc-Message",
			"Grpc-Status",
			"Grpc-Status-Details-Bin",
		},
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
