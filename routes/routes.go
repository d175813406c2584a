package routes

import (
	"melodica_go/controllers"
	"melodica_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	studentController := &controllers.StudentController{}
	lessonTypeController := &controllers.LessonTypeController{}
	lessonController := &controllers.LessonController{}
	invoiceController := &controllers.InvoiceController{}
	paymentController := &controllers.PaymentController{}
	paymentsImportController := &controllers.PaymentsImportController{}
	dashboardController := &controllers.DashboardController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	billingSettingsController := controllers.NewBillingSettingsController()
	healthController := controllers.NewHealthController(nil)
	wsController := controllers.NewWebSocketController(wsHub)

	// API group
	api := app.Group("/api")

	// Health
	api.Get("/health", healthController.GetHealthStatus)

	// Student management routes
	students := api.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Post("/", studentController.CreateStudent)
	students.Get("/:id", studentController.GetStudent)
	students.Put("/:id", studentController.UpdateStudent)
	students.Patch("/:id/archive", studentController.ArchiveStudent)
	students.Patch("/:id/reactivate", studentController.ReactivateStudent)
	students.Delete("/:id", studentController.DeleteStudent)

	// Lesson type catalog routes
	lessonTypes := api.Group("/lesson-types")
	lessonTypes.Get("/", lessonTypeController.GetLessonTypes)
	lessonTypes.Post("/", lessonTypeController.CreateLessonType)
	lessonTypes.Get("/:id", lessonTypeController.GetLessonType)
	lessonTypes.Put("/:id", lessonTypeController.UpdateLessonType)
	lessonTypes.Patch("/:id/deactivate", lessonTypeController.DeactivateLessonType)
	lessonTypes.Delete("/:id", lessonTypeController.DeleteLessonType)

	// Lesson scheduling routes. Static paths go first so they are not
	// swallowed by the :id parameter.
	lessons := api.Group("/lessons")
	lessons.Get("/", lessonController.GetLessons)
	lessons.Get("/calendar", lessonController.GetCalendar)
	lessons.Post("/", lessonController.CreateLesson)
	lessons.Post("/recurring", lessonController.CreateRecurringLessons)
	lessons.Post("/recurring/preview", lessonController.PreviewRecurrence)
	lessons.Post("/conflicts", lessonController.CheckConflicts)
	lessons.Get("/:id", lessonController.GetLesson)
	lessons.Put("/:id", lessonController.UpdateLesson)
	lessons.Patch("/:id/status", lessonController.UpdateLessonStatus)
	lessons.Delete("/:id", lessonController.DeleteLesson)

	// Invoice routes
	invoices := api.Group("/invoices")
	invoices.Get("/", invoiceController.GetInvoices)
	invoices.Get("/overdue", invoiceController.GetOverdueInvoices)
	invoices.Post("/", invoiceController.CreateInvoice)
	invoices.Post("/overdue/scan", invoiceController.RunOverdueScan)
	invoices.Post("/batch/preview", invoiceController.PreviewBatchInvoices)
	invoices.Post("/batch", invoiceController.CreateBatchInvoices)
	invoices.Post("/finalize-drafts", invoiceController.FinalizeDrafts)
	invoices.Get("/:id", invoiceController.GetInvoice)
	invoices.Post("/:id/void", invoiceController.VoidInvoice)
	invoices.Post("/:id/finalize", invoiceController.FinalizeInvoice)

	// Payment routes. Payments are immutable once recorded, so there is no
	// update or delete here; corrections go through voiding the invoice.
	payments := api.Group("/payments")
	payments.Get("/", paymentController.GetPayments)
	payments.Post("/", paymentController.RecordPayment)
	payments.Post("/import", paymentsImportController.Import)
	payments.Get("/import/archive", paymentsImportController.DownloadArchive)
	payments.Delete("/import/archive", paymentsImportController.DeleteArchive)
	payments.Get("/:id", paymentController.GetPayment)

	// Billing settings
	settings := api.Group("/settings")
	settings.Get("/billing", billingSettingsController.GetBillingSettings)
	settings.Put("/billing", billingSettingsController.UpdateBillingSettings)

	// Dashboard and reports
	dashboard := api.Group("/dashboard")
	dashboard.Get("/", dashboardController.GetDashboard)
	dashboard.Get("/revenue", dashboardController.GetRevenueReport)
	dashboard.Get("/revenue/monthly", dashboardController.GetMonthlyRevenue)
	dashboard.Get("/balances", dashboardController.GetOutstandingBalances)

	// Notification management routes
	notifications := api.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Get("/stats", notificationController.GetNotificationStats)
	notifications.Post("/", notificationController.CreateNotification)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)
	notifications.Get("/:id", notificationController.GetNotification)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)
	notifications.Delete("/:id", notificationController.DeleteNotification)

	// Log management routes
	logs := api.Group("/logs")
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
	logs.Get("/export", logController.ExportLogs)
	logs.Get("/archives", logController.GetLogArchives)
	logs.Get("/archives/:id/download", logController.DownloadLogArchive)
	logs.Post("/archive", logController.ArchiveOldLogs)
	logs.Post("/flush-cache", logController.FlushCachedLogs)
	logs.Delete("/old", logController.DeleteOldLogs)
	logs.Get("/:id", logController.GetLog)

	// WebSocket routes
	ws := api.Group("/ws")
	ws.Get("/stats", wsController.GetWebSocketStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		// IsWebSocketUpgrade returns true if the client
		// requested upgrade to the WebSocket protocol.
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return wsController.HandleWebSocket(c)
	})
	app.Get("/ws", wsController.WebSocketHandler())
}
