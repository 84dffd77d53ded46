// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/touchloop/touchloop-backend/internal/controller"
	"github.com/touchloop/touchloop-backend/internal/db"
	"github.com/touchloop/touchloop-backend/internal/handler"
	"github.com/touchloop/touchloop-backend/internal/queue"
	"github.com/touchloop/touchloop-backend/internal/repository"
	"github.com/touchloop/touchloop-backend/internal/service"
	"github.com/touchloop/touchloop-backend/internal/transport"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()
	q := queue.NewInMemoryQueue()

	accountRepo := &repository.AccountRepository{DB: db.DB}
	customerRepo := &repository.CustomerRepository{DB: db.DB}
	jobRepo := &repository.JobRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	enrollmentRepo := &repository.EnrollmentRepository{DB: db.DB}
	sendLogRepo := &repository.SendLogRepository{DB: db.DB}
	scheduledRepo := &repository.ScheduledSendRepository{DB: db.DB}

	sender := &transport.Router{
		Email: emailSender(),
		SMS:   &transport.DevSender{Label: "SMS"},
	}

	templates := &service.StaticTemplates{
		Default: service.Template{
			Subject: "How did we do, {first_name}?",
			Body:    "Hi {first_name}, thanks for choosing us! We'd love to hear about your experience.",
		},
	}

	quota := &service.QuotaGate{Accounts: accountRepo, SendLogs: sendLogRepo}

	orchestrator := &service.SendOrchestrator{
		Customers:   customerRepo,
		SendLogs:    sendLogRepo,
		Enrollments: enrollmentRepo,
		Campaigns:   campaignRepo,
		Quota:       quota,
		Transport:   sender,
		Templates:   templates,
	}

	enrollmentService := &service.EnrollmentService{
		Jobs:        jobRepo,
		Customers:   customerRepo,
		Campaigns:   campaignRepo,
		Enrollments: enrollmentRepo,
		SendLogs:    sendLogRepo,
		Queue:       q,
	}
	orchestrator.OnEnrollmentCompleted = enrollmentService.OnEnrollmentCompleted
	queue.StartTouchFireSubscriber(q, orchestrator)

	scheduledService := &service.ScheduledSendService{
		Repo:         scheduledRepo,
		Orchestrator: orchestrator,
	}

	validate := validator.New()

	enrollmentController := &controller.EnrollmentController{
		Enrollments: enrollmentService,
		Validate:    validate,
	}
	sendController := &controller.SendController{
		Orchestrator: orchestrator,
		Scheduled:    scheduledService,
		Quota:        quota,
		Validate:     validate,
	}
	campaignController := &controller.CampaignController{
		Campaigns: campaignRepo,
		Validate:  validate,
	}
	customerController := &controller.CustomerController{
		Customers: customerRepo,
	}
	campaignHandler := &handler.CampaignHandler{
		Repo: campaignRepo,
	}

	r := chi.NewRouter()

	// Enrollment routes
	r.Post("/enrollments/evaluate", enrollmentController.Evaluate)
	r.Post("/enrollments/{jobID}/resolve", enrollmentController.Resolve)
	r.Post("/enrollments/{jobID}/revert", enrollmentController.Revert)
	r.Get("/jobs/{id}/resolution", enrollmentController.GetResolution)

	// Send routes
	r.Post("/sends", sendController.CreateSend)
	r.Post("/scheduled-sends/bulk-cancel", sendController.BulkCancel)
	r.Post("/scheduled-sends/bulk-reschedule", sendController.BulkReschedule)
	r.Post("/send-logs/{id}/resend", sendController.Resend)
	r.Get("/account/quota", sendController.GetQuota)

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaignWithStats)

	// Customer routes
	r.Get("/customers/{id}/eligibility", customerController.GetEligibility)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

func emailSender() transport.Sender {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		log.Println("⚠️ SENDGRID_API_KEY not set, emails will be logged only")
		return &transport.DevSender{Label: "EMAIL"}
	}
	return transport.NewSendGridSender(
		apiKey,
		os.Getenv("FROM_EMAIL"),
		os.Getenv("FROM_NAME"),
	)
}
