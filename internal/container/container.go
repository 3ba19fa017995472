package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/config"
	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/infrastructure/postgres"
	"github.com/oksasatya/go-library-management/internal/infrastructure/search"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

// Container holds the process-wide clients built in main and the services
// wired from them. Optional clients (Rabbit, ES, GCS) may be nil.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Pool   *pgxpool.Pool
	Caps   postgres.Capabilities
	Redis  *redis.Client
	JWT    *helpers.JWTManager
	Rabbit *helpers.RabbitPublisher
	ES     *elasticsearch.Client
	GCS    *storage.Client

	Catalog   *application.CatalogService
	Identity  *application.IdentityService
	Loans     *application.LoanService
	Reports   *application.ReportService
	Dashboard *application.DashboardService
}

// Wire builds repositories and services. Call it once the clients are set.
func (c *Container) Wire() {
	gw := postgres.NewGateway(c.Pool, c.Logger)
	books := postgres.NewBookRepository(gw)
	users := postgres.NewUserRepository(gw)
	loans := postgres.NewLoanRepository(gw, c.Caps)
	stats := postgres.NewStatsRepository(gw)

	// typed nils must not leak into the service interfaces
	var index application.BookIndexer
	if c.ES != nil {
		index = search.NewBookIndex(c.ES, c.Config.ESBooksIndex)
	}
	var events application.EventPublisher
	if c.Rabbit != nil {
		events = c.Rabbit
	}
	var archive application.ObjectUploader
	if c.GCS != nil && c.Config.GCSBucket != "" {
		archive = &helpers.GCSUploader{Client: c.GCS, Bucket: c.Config.GCSBucket}
	}

	c.Catalog = application.NewCatalogService(books, index, c.Logger)
	c.Identity = application.NewIdentityService(users, c.JWT, c.Redis, c.Logger)
	c.Reports = application.NewReportService(books, archive, c.Logger)
	c.Dashboard = application.NewDashboardService(stats)

	c.Loans = application.NewLoanService(postgres.NewUnitOfWork(gw, c.Caps), loans, events, c.Logger)
	c.Loans.DefaultDays = c.Config.DefaultLoanDays
	c.Loans.DefaultPenalty = c.Config.DefaultPenalty
	c.Loans.LowStockThreshold = c.Config.LowStockAlertThreshold
}
