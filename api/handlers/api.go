package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/api/scheduler"
	"github.com/medassist/medassist-api/config"
	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/llm"
	"github.com/medassist/medassist-api/notifications"
)

const (
	minRequestTimeout = 30 * time.Second
	chatRateWindow    = time.Minute
)

// App stores the router, db connection and the services behind the routes
type App struct {
	Router *mux.Router
	Config config.Config

	dbHelper  databases.DatabaseHelper
	client    databases.ClientHelper
	redis     *redis.Client
	images    ImageStore
	llm       llm.Generator
	hub       *SyncHub
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	m := api.MiddlewareDB{
		DB:       databases.NewUserDatabase(a.dbHelper),
		Secret:   []byte(a.Config.JWTSecret),
		TokenTTL: a.Config.TokenTTL,
	}
	m.SetupGoGuardian()

	if a.hub == nil {
		a.hub = NewSyncHub()
	}
	if a.llm == nil {
		a.llm = llm.NewClient(a.Config.GeminiBaseURL, a.Config.GeminiModel, a.Config.GeminiAPIKey, a.Config.ChatTimeout)
	}

	medDB := databases.NewMedicationDatabase(a.dbHelper)
	doseDB := databases.NewDoseHistoryDatabase(a.dbHelper)

	au := Auth{DB: databases.NewUserDatabase(a.dbHelper)}
	med := Medication{DB: medDB, Events: a.hub}
	dose := Dose{DB: doseDB, MDB: medDB, Events: a.hub}
	prog := Progress{MDB: medDB, DDB: doseDB}
	pr := Prescription{DB: databases.NewPrescriptionDatabase(a.dbHelper), Images: a.images, Events: a.hub}
	pt := PushToken{DB: databases.NewPushTokenDatabase(a.dbHelper)}
	chat := Chat{LLM: a.llm}
	cld := CloudinaryHandler{
		CloudName:    a.Config.CloudinaryCloudName,
		APIKey:       a.Config.CloudinaryAPIKey,
		APISecret:    a.Config.CloudinaryAPISecret,
		UploadPreset: a.Config.CloudinaryUploadPreset,
	}
	metricsHandler := MetricsHandler{}
	chatLimiter := api.RateLimiter{
		Counter: api.NewRedisCounter(a.redis),
		Limit:   a.Config.ChatRateLimit,
		Window:  chatRateWindow,
		Prefix:  "ratelimit:chat",
	}

	requestTimeout := a.Config.ChatTimeout + 10*time.Second
	if requestTimeout < minRequestTimeout {
		requestTimeout = minRequestTimeout
	}

	r := api.New()
	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(requestTimeout))

	apiCreate := r.PathPrefix("/api").Subrouter()

	apiCreate.HandleFunc("/auth/register", au.RegisterHandler).Methods("POST")
	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/medications", api.Middleware(http.HandlerFunc(med.MedicationsHandler))).Methods("GET")
	apiCreate.Handle("/medications", api.Middleware(http.HandlerFunc(med.CreateMedicationHandler))).Methods("POST")
	apiCreate.Handle("/medications/{id}", api.Middleware(http.HandlerFunc(med.MedicationByIDHandler))).Methods("GET")
	apiCreate.Handle("/medications/{id}", api.Middleware(http.HandlerFunc(med.UpdateMedicationHandler))).Methods("PUT")
	apiCreate.Handle("/medications/{id}", api.Middleware(http.HandlerFunc(med.DeleteMedicationHandler))).Methods("DELETE")
	apiCreate.Handle("/medications/{id}/refill", api.Middleware(http.HandlerFunc(med.RefillMedicationHandler))).Methods("POST")

	apiCreate.Handle("/doses/medication/{medicationId}", api.Middleware(http.HandlerFunc(dose.DosesByMedicationHandler))).Methods("GET")
	apiCreate.Handle("/doses/today", api.Middleware(http.HandlerFunc(dose.TodayDosesHandler))).Methods("GET")
	apiCreate.Handle("/doses", api.Middleware(http.HandlerFunc(dose.CreateDoseHandler))).Methods("POST")
	apiCreate.Handle("/doses/{id}", api.Middleware(http.HandlerFunc(dose.UpdateDoseHandler))).Methods("PUT")

	apiCreate.Handle("/progress/today", api.Middleware(http.HandlerFunc(prog.TodayProgressHandler))).Methods("GET")

	apiCreate.Handle("/prescriptions", api.Middleware(http.HandlerFunc(pr.PrescriptionsHandler))).Methods("GET")
	apiCreate.Handle("/prescriptions", api.Middleware(http.HandlerFunc(pr.CreatePrescriptionHandler))).Methods("POST")
	apiCreate.Handle("/prescriptions/{id}", api.Middleware(http.HandlerFunc(pr.PrescriptionByIDHandler))).Methods("GET")
	apiCreate.Handle("/prescriptions/{id}", api.Middleware(http.HandlerFunc(pr.UpdatePrescriptionHandler))).Methods("PUT")
	apiCreate.Handle("/prescriptions/{id}", api.Middleware(http.HandlerFunc(pr.DeletePrescriptionHandler))).Methods("DELETE")

	apiCreate.Handle("/uploads/signature", api.Middleware(http.HandlerFunc(cld.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/push-tokens", api.Middleware(http.HandlerFunc(pt.RegisterPushTokenHandler))).Methods("POST")
	apiCreate.Handle("/push-tokens/{token}", api.Middleware(http.HandlerFunc(pt.DeletePushTokenHandler))).Methods("DELETE")

	apiCreate.Handle("/chat", api.Middleware(http.HandlerFunc(chat.GreetingHandler))).Methods("GET")
	apiCreate.Handle("/chat", api.Middleware(chatLimiter.Middleware(http.HandlerFunc(chat.ChatHandler)))).Methods("POST")

	apiCreate.Handle("/sync/ws", api.Middleware(http.HandlerFunc(a.hub.ServeWS))).Methods("GET")

	apiCreate.Handle("/metrics/summary", api.Middleware(http.HandlerFunc(metricsHandler.GetMetricsSummary))).Methods("GET")
	apiCreate.Handle("/metrics/routes", api.Middleware(http.HandlerFunc(metricsHandler.GetRouteMetrics))).Methods("GET")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Info("medassist-api has connected to the database")

	if err := databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	a.redis = config.NewRedisClient(&a.Config)

	images, err := NewCloudinaryStore(&a.Config)
	if err != nil {
		return err
	}
	if images != nil {
		a.images = images
	} else {
		zap.S().Warn("cloudinary is not configured, inline prescription images are disabled")
	}

	if a.Config.GeminiAPIKey == "" {
		zap.S().Warn("GEMINI_API_KEY is not set, chat requests will fail")
	}

	a.hub = NewSyncHub()

	if a.Config.SchedulerEnabled {
		var mailer notifications.Mailer
		if sg := notifications.NewSendGridMailer(a.Config.SendGridAPIKey, a.Config.MailFrom); sg != nil {
			mailer = sg
		}
		a.scheduler = scheduler.NewScheduler(
			databases.NewMedicationDatabase(a.dbHelper),
			databases.NewPushTokenDatabase(a.dbHelper),
			databases.NewUserDatabase(a.dbHelper),
			databases.NewSchedulerLockDatabase(a.dbHelper),
			notifications.NewExpoSender(a.Config.ExpoPushURL),
			mailer,
		)
		a.scheduler.Start()
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close stops the scheduler and releases every connection
func (a *App) Close(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.S().Warnw("failed to close redis", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}
